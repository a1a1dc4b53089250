package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/bookledger/internal/ir"
	"github.com/roach88/bookledger/internal/validate"
)

// Validation error codes (E100-E199)
const (
	ErrContractPurposeEmpty = "E101" // purpose is required
	ErrContractNoFunctions  = "E102" // at least one function required
	ErrDuplicateName        = "E103" // duplicate function or argument name
	ErrInvalidName          = "E104" // function or argument name is not an identifier
	ErrUnknownCheck         = "E105" // check names no built-in predicate
	ErrEmptyName            = "E106" // function or argument name is empty
)

var identPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled contract against manifest rules.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.ContractSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Purpose) == "" {
		errs = append(errs, ValidationError{
			Field:   "purpose",
			Message: "purpose is required and must be non-empty",
			Code:    ErrContractPurposeEmpty,
		})
	}

	if len(spec.Functions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "function",
			Message: "at least one function is required",
			Code:    ErrContractNoFunctions,
		})
	}

	seenFn := make(map[string]bool)
	for _, fn := range spec.Functions {
		field := "function." + fn.Name
		errs = append(errs, checkName(field, fn.Name)...)
		if seenFn[fn.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate function name", Code: ErrDuplicateName})
		}
		seenFn[fn.Name] = true

		seenArg := make(map[string]bool)
		for i, arg := range fn.Args {
			argField := fmt.Sprintf("%s.args[%d]", field, i)
			errs = append(errs, checkName(argField+".name", arg.Name)...)
			if seenArg[arg.Name] {
				errs = append(errs, ValidationError{Field: argField, Message: fmt.Sprintf("duplicate argument name %q", arg.Name), Code: ErrDuplicateName})
			}
			seenArg[arg.Name] = true

			if _, ok := validate.Lookup(arg.Check); !ok {
				errs = append(errs, ValidationError{
					Field:   argField + ".check",
					Message: fmt.Sprintf("unknown check %q (known: %s)", arg.Check, strings.Join(validate.Names(), ", ")),
					Code:    ErrUnknownCheck,
				})
			}
		}
	}

	return errs
}

func checkName(field, name string) []ValidationError {
	if name == "" {
		return []ValidationError{{Field: field, Message: "name is empty", Code: ErrEmptyName}}
	}
	if !identPattern.MatchString(name) {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("%q is not an identifier", name), Code: ErrInvalidName}}
	}
	return nil
}
