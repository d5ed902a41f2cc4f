package main

import (
	"os"
	"path/filepath"

	docxmerge "github.com/little-yangyang/docx-merge"
)

const sampleDir = "examples/simple_merge"

// parts is the smallest package Word opens: content types, the package
// relationship and a two-paragraph body.
var parts = []struct{ name, content string }{
	{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`},
	{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`},
	{docxmerge.WordBody, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t xml:space="preserve">Cher {{ARCHITECTE}},</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Veuillez trouver ci-joint la facture {{FACTURE}} d'un montant de {{MONTANT}} EUR.</w:t></w:r></w:p>
</w:body>
</w:document>`},
}

const sampleData = "Architecte,Facture,Montant\nLe Corbusier,F-001,1200\nEileen Gray,F-002,980\n"

// Writes the sample template and data file used by examples/simple_merge.
// The parts are staged on disk and packed with docxmerge.Build, the same
// writer the merge uses for its output.
func main() {
	stage, err := os.MkdirTemp("", "gen-sample-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(stage)

	for _, p := range parts {
		path := filepath.Join(stage, filepath.FromSlash(p.name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			panic(err)
		}
		if err := os.WriteFile(path, []byte(p.content), 0o644); err != nil {
			panic(err)
		}
	}

	if err := docxmerge.Build(stage, filepath.Join(sampleDir, "template.docx")); err != nil {
		panic(err)
	}
	if err := os.WriteFile(filepath.Join(sampleDir, "data.csv"), []byte(sampleData), 0o644); err != nil {
		panic(err)
	}
}
