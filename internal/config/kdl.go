package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// FileConfig is the project-level configuration loaded from .sqlembed.kdl.
type FileConfig struct {
	// Sites replaces the default site list when non-empty.
	Sites []QuerySite
	// Languages restricts scanning to the named host languages. Empty
	// means all registered languages.
	Languages []string
}

// LoadKDL loads configuration from the given .sqlembed.kdl path. A missing
// file is not an error: it returns (nil, nil) and callers fall back to
// defaults.
//
// Format:
//
//	site "execute" {
//	    arg 1
//	}
//	site "render_sql" {
//	    arg 2
//	    template true
//	}
//	languages "python" "javascript"
func LoadKDL(path string) (*FileConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return parseKDL(string(content))
}

func parseKDL(content string) (*FileConfig, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	cfg := &FileConfig{}
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "site":
			name, ok := firstStringArg(n)
			if !ok {
				return nil, fmt.Errorf("site node requires a function name argument")
			}
			site := QuerySite{FunctionName: name, SQLArgNo: 1}
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "arg":
					if v, ok := firstIntArg(cn); ok {
						site.SQLArgNo = v
					}
				case "template":
					if b, ok := firstBoolArg(cn); ok {
						site.IsStringTemplate = b
					}
				}
			}
			cfg.Sites = append(cfg.Sites, site)
		case "languages":
			cfg.Languages = append(cfg.Languages, collectStringArgs(n)...)
		}
	}

	if err := Validate(cfg.Sites); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Helper functions leveraging the kdl-go document model.

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
