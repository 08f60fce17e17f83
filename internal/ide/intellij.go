package ide

import (
	"encoding/xml"
	"path/filepath"
)

func init() { register(intellij{}) }

type intellij struct{}

func (intellij) Name() string { return "intellij" }

// toolchainXML mirrors the .idea/toolchain.xml schema the Rust plugin reads.
type toolchainXML struct {
	XMLName xml.Name      `xml:"project"`
	Version string        `xml:"version,attr"`
	Comp    toolchainComp `xml:"component"`
}

type toolchainComp struct {
	Name    string            `xml:"name,attr"`
	Options []toolchainOption `xml:"option"`
}

type toolchainOption struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (intellij) Generate(dir string, p Paths, force bool) ([]string, error) {
	doc := toolchainXML{
		Version: "4",
		Comp: toolchainComp{
			Name: "RustProjectSettings",
			Options: []toolchainOption{
				{Name: "toolchainHomeDirectory", Value: filepath.Dir(p.RustcPath)},
				{Name: "explicitPathToStdlib", Value: ""},
			},
		},
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	data = append([]byte(xml.Header), append(data, '\n')...)

	path := filepath.Join(dir, ".idea", "toolchain.xml")
	if err := writeFile(path, data, force); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
