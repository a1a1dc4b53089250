// Package contracts loads the contract manifest and binds each declared
// function to its handler.
package contracts

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/bookledger/internal/chaincode/ownership"
	"github.com/roach88/bookledger/internal/chaincode/room"
	"github.com/roach88/bookledger/internal/chaincode/trading"
	"github.com/roach88/bookledger/internal/chaincode/user"
	"github.com/roach88/bookledger/internal/compiler"
	"github.com/roach88/bookledger/internal/engine"
	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/validate"
)

//go:embed contracts.cue
var manifest []byte

// Manifest returns the embedded CUE source.
func Manifest() []byte {
	out := make([]byte, len(manifest))
	copy(out, manifest)
	return out
}

// Handlers returns the handler table for every hosted contract.
func Handlers() map[string]map[string]engine.HandlerFunc {
	return map[string]map[string]engine.HandlerFunc{
		user.Name:      user.Handlers(),
		ownership.Name: ownership.Handlers(),
		room.Name:      room.Handlers(),
		trading.Name:   trading.Handlers(),
	}
}

// Load compiles the embedded manifest.
func Load() ([]ir.ContractSpec, error) {
	return Parse(manifest, "contracts.cue")
}

// Parse compiles a manifest from src. Contracts are returned sorted by name.
func Parse(src []byte, filename string) ([]ir.ContractSpec, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile manifest: %w", err)
	}

	contractsVal := root.LookupPath(cue.ParsePath("contract"))
	if !contractsVal.Exists() {
		return nil, fmt.Errorf("manifest %s declares no contracts", filename)
	}
	iter, err := contractsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}

	var specs []ir.ContractSpec
	for iter.Next() {
		spec, err := compiler.CompileContract(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", iter.Label(), err)
		}
		if errs := compiler.Validate(spec); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return nil, fmt.Errorf("contract %s: %s", spec.Name, strings.Join(msgs, "; "))
		}
		specs = append(specs, *spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// Build pairs every declared function with its handler. Each declared
// function needs a handler and each handler needs a declaration.
func Build(spec ir.ContractSpec, handlers map[string]engine.HandlerFunc) ([]engine.Method, error) {
	methods := make([]engine.Method, 0, len(spec.Functions))
	seen := make(map[string]bool, len(spec.Functions))

	for _, fn := range spec.Functions {
		h, ok := handlers[fn.Name]
		if !ok {
			return nil, fmt.Errorf("contract %s: no handler for function %s", spec.Name, fn.Name)
		}
		schema, err := schemaOf(fn)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", spec.Name, err)
		}
		methods = append(methods, engine.Method{
			Name:     fn.Name,
			Schema:   schema,
			Handler:  h,
			ReadOnly: fn.ReadOnly,
		})
		seen[fn.Name] = true
	}

	var extra []string
	for name := range handlers {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("contract %s: handlers without declaration: %s", spec.Name, strings.Join(extra, ", "))
	}

	return methods, nil
}

func schemaOf(fn ir.FunctionSig) (validate.Schema, error) {
	schema := make(validate.Schema, 0, len(fn.Args))
	for _, arg := range fn.Args {
		p, ok := validate.Lookup(arg.Check)
		if !ok {
			return nil, fmt.Errorf("function %s argument %s: unknown check %q", fn.Name, arg.Name, arg.Check)
		}
		if arg.Optional {
			p = validate.Optional(p)
		}
		schema = append(schema, p)
	}
	return schema, nil
}

// RegisterAll loads the manifest and registers every contract with e.
func RegisterAll(e *engine.Engine) error {
	specs, err := Load()
	if err != nil {
		return err
	}
	tables := Handlers()
	for _, spec := range specs {
		handlers, ok := tables[spec.Name]
		if !ok {
			return fmt.Errorf("contract %s has no implementation", spec.Name)
		}
		methods, err := Build(spec, handlers)
		if err != nil {
			return err
		}
		if err := e.Register(spec.Name, methods); err != nil {
			return err
		}
	}
	return nil
}
