package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/bookledger/internal/ir"
)

// CompileContract parses a CUE value into a ContractSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the contract struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`contract: user: { ... }`)
//	spec, err := CompileContract(v.LookupPath(cue.ParsePath("contract.user")))
//
// Functions and arguments keep declaration order.
func CompileContract(v cue.Value) (*ir.ContractSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ContractSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{
			Field:   "purpose",
			Message: "purpose is required",
			Pos:     v.Pos(),
		}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Purpose = purpose

	spec.Functions, err = parseFunctions(v)
	if err != nil {
		return nil, err
	}
	if len(spec.Functions) == 0 {
		return nil, &CompileError{
			Field:   "function",
			Message: "at least one function is required",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// parseFunctions extracts function definitions from the contract.
func parseFunctions(v cue.Value) ([]ir.FunctionSig, error) {
	var functions []ir.FunctionSig

	fnVal := v.LookupPath(cue.ParsePath("function"))
	if !fnVal.Exists() {
		return functions, nil
	}

	iter, err := fnVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		name := iter.Label()
		fnValue := iter.Value()

		fn := ir.FunctionSig{Name: name, Args: []ir.ArgSig{}}

		roVal := fnValue.LookupPath(cue.ParsePath("readonly"))
		if roVal.Exists() {
			fn.ReadOnly, err = roVal.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
		}

		argsVal := fnValue.LookupPath(cue.ParsePath("args"))
		if !argsVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("function.%s.args", name),
				Message: "function args are required (use [] for none)",
				Pos:     fnValue.Pos(),
			}
		}

		argsIter, err := argsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; argsIter.Next(); i++ {
			arg, err := parseArg(argsIter.Value(), fmt.Sprintf("function.%s.args[%d]", name, i))
			if err != nil {
				return nil, err
			}
			fn.Args = append(fn.Args, arg)
		}

		functions = append(functions, fn)
	}

	return functions, nil
}

// parseArg parses one {name, check, optional?} argument entry.
func parseArg(v cue.Value, field string) (ir.ArgSig, error) {
	var arg ir.ArgSig

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return arg, &CompileError{Field: field + ".name", Message: "argument name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return arg, formatCUEError(err)
	}
	arg.Name = name

	checkVal := v.LookupPath(cue.ParsePath("check"))
	if !checkVal.Exists() {
		return arg, &CompileError{Field: field + ".check", Message: "argument check is required", Pos: v.Pos()}
	}
	check, err := checkVal.String()
	if err != nil {
		return arg, formatCUEError(err)
	}
	arg.Check = check

	optVal := v.LookupPath(cue.ParsePath("optional"))
	if optVal.Exists() {
		arg.Optional, err = optVal.Bool()
		if err != nil {
			return arg, formatCUEError(err)
		}
	}

	return arg, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
