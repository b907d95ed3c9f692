package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The modules follow a ports-and-adapters layout. Domain and ports may
// be shared across modules; services, usecases and adapters may not,
// and inner layers never reach outward.
func TestModuleLayerImports(t *testing.T) {
	t.Parallel()
	fset := token.NewFileSet()
	root := filepath.Join("..", "modules")
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		slash := filepath.ToSlash(path)
		module, layer := classify(slash)
		if module == "" || layer == "" {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		for _, imp := range node.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if !strings.Contains(importPath, "studylog/internal/modules/") {
				continue
			}
			if reason := violation(module, layer, importPath); reason != "" {
				t.Fatalf("%s (%s) imports %s: %s", slash, layer, importPath, reason)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk modules: %v", err)
	}
}

var layers = []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"}

func classify(path string) (module, layer string) {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" {
			module = parts[i+1]
			break
		}
	}
	for _, candidate := range layers {
		if strings.Contains(path, "/"+candidate+"/") {
			layer = candidate
			break
		}
	}
	return module, layer
}

func isPortIn(importPath string) bool {
	return strings.Contains(importPath, "/port/in/") || strings.HasSuffix(importPath, "/port/in")
}

func isDTO(importPath string) bool {
	return strings.Contains(importPath, "/dto/") || strings.HasSuffix(importPath, "/dto")
}

func violation(module, layer, importPath string) string {
	sameModule := strings.Contains(importPath, "/internal/modules/"+module+"/")
	if !sameModule {
		for _, private := range []string{"/service", "/usecase", "/adapter"} {
			if strings.Contains(importPath, private+"/") || strings.HasSuffix(importPath, private) {
				return "another module's " + strings.TrimPrefix(private, "/") + " layer is private"
			}
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return ""
		}
	}

	outward := func(targets ...string) string {
		for _, target := range targets {
			if strings.Contains(importPath, "/"+target+"/") || strings.HasSuffix(importPath, "/"+target) {
				return layer + " must not import " + target
			}
		}
		return ""
	}

	switch layer {
	case "adapter/in":
		if !isPortIn(importPath) && !isDTO(importPath) {
			return "inbound adapters see only port/in and dto"
		}
		return ""
	case "usecase":
		return outward("adapter")
	case "service":
		return outward("adapter", "usecase")
	case "domain":
		return outward("adapter", "usecase", "service")
	default:
		return ""
	}
}
