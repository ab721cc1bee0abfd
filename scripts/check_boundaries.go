package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "payparty"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a service layer may import besides the standard
// library. Paths starting with "./" are relative to the owning service.
type layerRule struct {
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain": {allowed: []string{"./domain"}},
	"ports": {allowed: []string{
		"./domain",
		modulePath + "/contracts",
	}},
	"application": {allowed: []string{
		"./application",
		"./domain",
		"./ports",
		modulePath + "/contracts",
		"github.com/samber/lo",
		"github.com/ethereum/go-ethereum/common",
	}},
}

func main() {
	root := flag.String("root", "contexts", "directory holding the bounded contexts")
	flag.Parse()

	violations, err := collectViolations(*root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks root, expected to be laid out as
// <context>/<service>/<layer>/..., and returns violations sorted by position.
func collectViolations(root string) ([]violation, error) {
	var violations []violation

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[0], parts[1])
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}
		fileViolations, err := validateFile(path, "contexts/"+filepath.ToSlash(rel), layer, servicePrefix)
		if err != nil {
			return err
		}
		violations = append(violations, fileViolations...)
		return nil
	})
	if err != nil {
		return nil, err
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
	return violations, nil
}

func validateFile(path string, displayPath string, layer string, servicePrefix string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: displayPath, Line: 1, Rule: "file must parse"}}, nil
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		line := fset.Position(imp.Pos()).Line
		for _, rule := range checkImport(importPath, layer, servicePrefix) {
			violations = append(violations, violation{
				File:   displayPath,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations, nil
}

func checkImport(importPath string, layer string, servicePrefix string) []string {
	var rules []string
	if strings.HasPrefix(importPath, modulePath+"/contexts/") && !hasPrefix(importPath, servicePrefix) {
		rules = append(rules, "cross-service imports are forbidden")
	}

	rule, ok := layerRules[layer]
	if !ok {
		return rules
	}
	if strings.Contains(importPath, "/adapters/") {
		rules = append(rules, layer+" must not import adapters")
	}
	if hasPrefix(importPath, modulePath+"/internal") || hasPrefix(importPath, modulePath+"/cmd") {
		rules = append(rules, layer+" must not import runtime infrastructure")
	}
	if !isStdlib(importPath) && !isAllowed(importPath, rule.allowed, servicePrefix) {
		rules = append(rules, layer+" import is outside explicit allowlist")
	}
	return rules
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowed []string, servicePrefix string) bool {
	for _, prefix := range allowed {
		if rest, local := strings.CutPrefix(prefix, "./"); local {
			prefix = servicePrefix + "/" + rest
		}
		if hasPrefix(importPath, prefix) {
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
