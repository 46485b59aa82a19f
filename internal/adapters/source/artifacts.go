package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
)

type compiledEntry struct {
	name     string
	abi      *abi.ABI
	bytecode []byte
	kind     string
	bases    []string
}

// ReadArtifacts indexes the Foundry output directory into a compiled module
// set. Deployable contracts become modules, interfaces become the graph the
// interface ids are computed over.
func ReadArtifacts(outDir, revision string, markers []string, log *slog.Logger) (*models.CompiledModuleSet, error) {
	if _, err := os.Stat(outDir); err != nil {
		return nil, fmt.Errorf("compiler output not found at %s: %w", outDir, err)
	}

	entries := make(map[string]*compiledEntry)
	err := filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		entry, err := readArtifact(path)
		if err != nil {
			log.Debug("skipping artifact", "path", path, "error", err)
			return nil
		}
		if entry == nil {
			return nil
		}
		if _, seen := entries[entry.name]; seen {
			log.Debug("duplicate contract name, keeping first", "name", entry.name, "path", path)
			return nil
		}
		entries[entry.name] = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read artifacts: %w", err)
	}

	set := &models.CompiledModuleSet{
		Revision: revision,
		Modules:  make(map[string]*models.CompiledModule),
	}
	interfaces := make(map[string]bool)
	for _, name := range lo.Keys(entries) {
		if entries[name].kind == "interface" {
			interfaces[name] = true
		}
	}

	names := lo.Keys(entries)
	sort.Strings(names)
	for _, name := range names {
		e := entries[name]
		switch {
		case e.kind == "interface":
			extends := lo.Filter(e.bases, func(b string, _ int) bool { return interfaces[b] })
			set.Interfaces = append(set.Interfaces, domain.NewInterfaceDef(name, e.abi, extends...))
		case len(e.bytecode) > 0:
			set.Modules[name] = &models.CompiledModule{
				Name:      name,
				ABI:       e.abi,
				Bytecode:  e.bytecode,
				Interface: advertisedInterface(e, interfaces, markers),
			}
		}
	}
	return set, nil
}

// advertisedInterface picks the first directly inherited interface that is
// not a marker, falling back to the I<Name> convention for facets.
func advertisedInterface(e *compiledEntry, interfaces map[string]bool, markers []string) string {
	for _, b := range e.bases {
		if interfaces[b] && !lo.Contains(markers, b) {
			return b
		}
	}
	conventional := "I" + strings.TrimSuffix(e.name, "Facet")
	if interfaces[conventional] {
		return conventional
	}
	return ""
}

func readArtifact(path string) (*compiledEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, err
	}
	name, _ := artifact.ContractName()
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if len(artifact.ABI) == 0 {
		return nil, nil
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return nil, fmt.Errorf("invalid ABI: %w", err)
	}

	entry := &compiledEntry{name: name, abi: &parsed, kind: "contract"}
	if def, ok := artifact.AST.Definition(name); ok {
		entry.kind = def.ContractKind
		entry.bases = def.Bases()
		if def.Abstract {
			entry.kind = "abstract"
		}
	} else if isInterfaceName(name) && bytecodeEmpty(artifact.Bytecode.Object) {
		entry.kind = "interface"
	}

	if entry.kind == "contract" && !bytecodeEmpty(artifact.Bytecode.Object) {
		if len(artifact.Bytecode.LinkReferences) > 0 {
			return nil, fmt.Errorf("%s needs library linking", name)
		}
		if entry.bytecode, err = hexutil.Decode(artifact.Bytecode.Object); err != nil {
			return nil, fmt.Errorf("invalid bytecode: %w", err)
		}
	}
	return entry, nil
}

func bytecodeEmpty(object string) bool {
	return object == "" || object == "0x"
}

func isInterfaceName(name string) bool {
	return len(name) > 1 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}
