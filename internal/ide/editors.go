package ide

import (
	"bytes"
	"path/filepath"
	"text/template"
)

func init() {
	register(vim{})
	register(emacs{})
	register(sublime{})
}

// The template-driven editors all take the same data.
type editorData struct {
	Home   string
	BinDir string
	Rustc  string
	Cargo  string
}

func dataFor(p Paths) editorData {
	return editorData{
		Home:   p.Home,
		BinDir: filepath.Dir(p.RustcPath),
		Rustc:  p.RustcPath,
		Cargo:  p.CargoPath,
	}
}

func renderTo(dir, name string, tmpl *template.Template, p Paths, force bool) ([]string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, dataFor(p)); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	if err := writeFile(path, buf.Bytes(), force); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

type vim struct{}

func (vim) Name() string { return "vim" }

var vimTmpl = template.Must(template.New("vim").Parse(`" Quantum Rust toolchain integration (generated by quantumctl)
let $QUANTUM_RUST_HOME = '{{.Home}}'
let $PATH = '{{.BinDir}}:' . $PATH
let g:rustc_path = '{{.Rustc}}'
let g:cargo_command = '{{.Cargo}}'
`))

func (vim) Generate(dir string, p Paths, force bool) ([]string, error) {
	return renderTo(dir, "quantum-rust.vim", vimTmpl, p, force)
}

type emacs struct{}

func (emacs) Name() string { return "emacs" }

var emacsTmpl = template.Must(template.New("emacs").Parse(`;;; quantum-rust.el --- Quantum Rust toolchain integration (generated by quantumctl)
(setenv "QUANTUM_RUST_HOME" "{{.Home}}")
(setenv "PATH" (concat "{{.BinDir}}:" (getenv "PATH")))
(add-to-list 'exec-path "{{.BinDir}}")
(setq rust-rustc-bin "{{.Rustc}}")
(setq rust-cargo-bin "{{.Cargo}}")
;;; quantum-rust.el ends here
`))

func (emacs) Generate(dir string, p Paths, force bool) ([]string, error) {
	return renderTo(dir, "quantum-rust.el", emacsTmpl, p, force)
}

type sublime struct{}

func (sublime) Name() string { return "sublime" }

var sublimeSettingsTmpl = template.Must(template.New("sublime-settings").Parse(`{
    "rust_syntax_checking": true,
    "rust_gutter_style": "shape",
    "paths": {
        "linux": ["{{.BinDir}}"],
        "osx": ["{{.BinDir}}"]
    },
    "env": {
        "QUANTUM_RUST_HOME": "{{.Home}}"
    }
}
`))

var sublimeBuildTmpl = template.Must(template.New("sublime-build").Parse(`{
    "shell_cmd": "{{.Cargo}} build",
    "working_dir": "${folder}",
    "file_regex": "^(.+\\.rs):(\\d+):(\\d+)",
    "env": {
        "QUANTUM_RUST_HOME": "{{.Home}}"
    },
    "variants": [
        {"name": "Run", "shell_cmd": "{{.Cargo}} run"},
        {"name": "Test", "shell_cmd": "{{.Cargo}} test"}
    ]
}
`))

func (sublime) Generate(dir string, p Paths, force bool) ([]string, error) {
	settings, err := renderTo(dir, "QuantumRust.sublime-settings", sublimeSettingsTmpl, p, force)
	if err != nil {
		return nil, err
	}
	build, err := renderTo(dir, "QuantumRust.sublime-build", sublimeBuildTmpl, p, force)
	if err != nil {
		return nil, err
	}
	return append(settings, build...), nil
}
