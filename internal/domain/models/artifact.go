package models

import "encoding/json"

// BytecodeObject represents bytecode information in a Foundry artifact
type BytecodeObject struct {
	Object         string         `json:"object"`
	LinkReferences map[string]any `json:"linkReferences"`
}

// Artifact represents a Foundry compilation artifact
type Artifact struct {
	ABI               json.RawMessage   `json:"abi"`
	Bytecode          BytecodeObject    `json:"bytecode"`
	MethodIdentifiers map[string]string `json:"methodIdentifiers"`
	Metadata          ArtifactMetadata  `json:"metadata"`
	AST               *SourceUnit       `json:"ast,omitempty"`
}

// ArtifactMetadata represents the metadata section of a Foundry artifact
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// ContractName returns the compilation target's contract name
func (a *Artifact) ContractName() (name, source string) {
	for src, contract := range a.Metadata.Settings.CompilationTarget {
		return contract, src
	}
	return "", ""
}

// SourceUnit is the subset of the solc AST facet reads
type SourceUnit struct {
	Nodes []ASTNode `json:"nodes"`
}

// ASTNode is one top-level node of a source unit
type ASTNode struct {
	NodeType      string         `json:"nodeType"`
	Name          string         `json:"name"`
	ContractKind  string         `json:"contractKind"`
	Abstract      bool           `json:"abstract"`
	BaseContracts []BaseContract `json:"baseContracts"`
}

// BaseContract is one inheritance specifier
type BaseContract struct {
	BaseName struct {
		Name string `json:"name"`
	} `json:"baseName"`
}

// Definition returns the contract definition named name, if present
func (u *SourceUnit) Definition(name string) (*ASTNode, bool) {
	if u == nil {
		return nil, false
	}
	for i := range u.Nodes {
		n := &u.Nodes[i]
		if n.NodeType == "ContractDefinition" && n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Bases lists the direct base contract names in declaration order
func (n *ASTNode) Bases() []string {
	out := make([]string, 0, len(n.BaseContracts))
	for _, b := range n.BaseContracts {
		out = append(out, b.BaseName.Name)
	}
	return out
}
