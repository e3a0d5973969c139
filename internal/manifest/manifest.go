// Package manifest shapes the one JSON artifact the in-scope
// ArtifactBuilder owns: a summary tree consumed by the external
// artifact writer, never written to disk by this package.
package manifest

import (
	"encoding/json"
	"sort"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/semantic"
	"github.com/o3lang/o3c/internal/types"
)

// FunctionSummary is one function's signature and purity, as recorded
// by the semantic surface.
type FunctionSummary struct {
	Name       string   `json:"name"`
	ParamTypes []string `json:"paramTypes"`
	ReturnType string   `json:"returnType"`
	Pure       bool     `json:"pure"`
	Defined    bool     `json:"defined"`
	Autorelease int     `json:"autoreleasePoolBlocks"`
}

// MemberSummary is one protocol, interface, or implementation container:
// its name and the names of its properties and methods.
type MemberSummary struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties,omitempty"`
	Methods    []string `json:"methods,omitempty"`
}

// Manifest is the full tree encoded to JSON.
type Manifest struct {
	Module          string            `json:"module"`
	GlobalCount     int               `json:"globalCount"`
	FunctionCount   int               `json:"functionCount"`
	ProtocolCount   int               `json:"protocolCount"`
	InterfaceCount  int               `json:"interfaceCount"`
	ImplCount       int               `json:"implementationCount"`
	Functions       []FunctionSummary `json:"functions"`
	Protocols       []MemberSummary   `json:"protocols"`
	Interfaces      []MemberSummary   `json:"interfaces"`
	Implementations []MemberSummary   `json:"implementations"`
	LoweringContract string           `json:"loweringContractReplayKey"`
}

// Build renders program's manifest against surface and contract.
func Build(program *ast.Program, surface *semantic.SymbolSurface, contract lower.Contract) Manifest {
	m := Manifest{
		Module:           program.ModuleName,
		GlobalCount:      len(program.Globals),
		FunctionCount:    len(program.Functions),
		ProtocolCount:    len(program.Protocols),
		InterfaceCount:   len(program.Interfaces),
		ImplCount:        len(program.Implementations),
		LoweringContract: contract.ReplayKey(),
	}

	seen := make(map[string]bool)
	for _, fn := range program.Functions {
		if seen[fn.Name] {
			continue
		}
		seen[fn.Name] = true
		info := surface.Functions[fn.Name]
		if info == nil {
			continue
		}
		paramTypes := make([]string, len(info.ParamTypes))
		for i, t := range info.ParamTypes {
			paramTypes[i] = scalarName(t)
		}
		m.Functions = append(m.Functions, FunctionSummary{
			Name:        fn.Name,
			ParamTypes:  paramTypes,
			ReturnType:  scalarName(info.ReturnType),
			Pure:        info.Pure,
			Defined:     info.Defined,
			Autorelease: countAutoreleasePools(fn.Body),
		})
	}
	sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].Name < m.Functions[j].Name })

	for _, p := range program.Protocols {
		m.Protocols = append(m.Protocols, memberSummaryOf(p.Name, p.Properties, p.Methods))
	}
	for _, i := range program.Interfaces {
		m.Interfaces = append(m.Interfaces, memberSummaryOf(i.Name, i.Properties, i.Methods))
	}
	for _, impl := range program.Implementations {
		m.Implementations = append(m.Implementations, memberSummaryOf(impl.Name, impl.Properties, impl.Methods))
	}

	return m
}

func memberSummaryOf(name string, props []ast.Property, methods []ast.Method) MemberSummary {
	s := MemberSummary{Name: name}
	for _, p := range props {
		s.Properties = append(s.Properties, p.Name)
	}
	for _, mth := range methods {
		s.Methods = append(s.Methods, mth.Name)
	}
	return s
}

func scalarName(t types.Scalar) string {
	switch t {
	case types.I32:
		return "i32"
	case types.Bool:
		return "bool"
	case types.Void:
		return "void"
	case types.Function:
		return "function"
	default:
		return "unknown"
	}
}

// countAutoreleasePools walks body recursively counting blocks tagged by
// an `@autoreleasepool { ... }` statement; this count is manifest-only
// metadata and has no effect on IR emission.
func countAutoreleasePools(body *ast.BlockStmt) int {
	if body == nil {
		return 0
	}
	count := 0
	var walkStmt func(ast.Stmt)
	walkStmt = func(stmt ast.Stmt) {
		switch s := stmt.(type) {
		case *ast.BlockStmt:
			if s.Autorelease != nil {
				count++
			}
			for _, inner := range s.Body {
				walkStmt(inner)
			}
		case *ast.IfStmt:
			walkStmt(s.Then)
			if s.Else != nil {
				walkStmt(s.Else)
			}
		case *ast.WhileStmt:
			walkStmt(s.Body)
		case *ast.DoWhileStmt:
			walkStmt(s.Body)
		case *ast.ForStmt:
			if s.Init != nil {
				walkStmt(s.Init)
			}
			walkStmt(s.Body)
			if s.Step != nil {
				walkStmt(s.Step)
			}
		case *ast.SwitchStmt:
			for _, c := range s.Cases {
				for _, inner := range c.Body {
					walkStmt(inner)
				}
			}
		}
	}
	walkStmt(body)
	return count
}

// Marshal encodes m as indented JSON text for the CLI/pipeline boundary.
func Marshal(m Manifest) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
