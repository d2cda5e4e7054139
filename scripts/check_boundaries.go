package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "sponsordesk"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer may import besides the standard library.
type layerRule struct {
	name      string
	local     []string
	external  []string
	forbidden []string
}

// Value libraries are allowed in the inner layers; drivers, transports and
// runtime wiring are not.
var layerRules = map[string]layerRule{
	"domain": {
		name:     "domain",
		local:    []string{"/domain"},
		external: []string{"github.com/shopspring/decimal", "github.com/deckarep/golang-set"},
	},
	"ports": {
		name:     "ports",
		local:    []string{"/domain"},
		external: []string{"github.com/shopspring/decimal", modulePath + "/contracts", modulePath + "/internal/shared"},
	},
	"application": {
		name:      "application",
		local:     []string{"/application", "/domain", "/ports"},
		external:  []string{"github.com/shopspring/decimal", modulePath + "/contracts"},
		forbidden: []string{modulePath + "/internal/platform", modulePath + "/internal/app"},
	},
}

func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations := collectViolations(root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		// contexts/<context>/<module>/<layer>/...
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, parts[3], modulePrefix)...)
		return nil
	})
	return violations
}

func validateFile(path string, layer string, modulePrefix string) []violation {
	normalized := filepath.ToSlash(path)
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	report := func(line int, importPath, rule string) {
		violations = append(violations, violation{File: normalized, Line: line, Import: importPath, Rule: rule})
	}

	rule, layered := layerRules[strings.TrimSuffix(layer, ".go")]
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report(line, importPath, "cross-module imports are forbidden")
		}
		if !layered {
			continue
		}
		if strings.Contains(importPath, "/adapters/") || strings.HasSuffix(importPath, "/adapters") {
			report(line, importPath, rule.name+" must not import adapters")
			continue
		}
		if isAllowed(importPath, rule.forbidden) {
			report(line, importPath, rule.name+" must not import runtime infrastructure")
			continue
		}
		if isStdlib(importPath) || isAllowed(importPath, rule.external) {
			continue
		}
		local := make([]string, 0, len(rule.local))
		for _, suffix := range rule.local {
			local = append(local, modulePrefix+suffix)
		}
		if !isAllowed(importPath, local) {
			report(line, importPath, rule.name+" import is outside explicit allowlist")
		}
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
