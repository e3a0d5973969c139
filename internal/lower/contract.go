// Package lower holds the message-send ABI boundary: the lowering
// contract that the IR emitter embeds into its header and that downstream
// consumers use to validate they're reading IR generated against a
// compatible runtime-dispatch shim. Carried in semantics from
// native/objc3c/src/lower/objc3_lowering_contract.cpp.
package lower

import (
	"fmt"
	"regexp"
)

// DefaultArgSlots and MaxArgSlots are the message-send argument-slot
// bound's default and hard cap.
const (
	DefaultArgSlots = 4
	MaxArgSlots     = 16
	DefaultSymbol   = "objc3_msgsend_i32"
)

var dispatchSymbolPattern = regexp.MustCompile(`^[A-Za-z_.$][A-Za-z0-9_.$]*$`)

// Contract is the ABI boundary for message-send lowering: how many
// argument slots the runtime-dispatch bridge takes and what it's called.
type Contract struct {
	RuntimeDispatchSymbol string
	ArgSlots              int
}

// IsValidRuntimeDispatchSymbol reports whether name is a legal C-linkage
// symbol per the contract's grammar.
func IsValidRuntimeDispatchSymbol(name string) bool {
	return dispatchSymbolPattern.MatchString(name)
}

// TryNormalizeLoweringContract validates a requested contract. An empty
// symbol takes DefaultSymbol and a non-positive slot count takes
// DefaultArgSlots; an invalid symbol or a slot count above MaxArgSlots
// returns an error describing the first violation.
func TryNormalizeLoweringContract(symbol string, argSlots int) (Contract, error) {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	if !IsValidRuntimeDispatchSymbol(symbol) {
		return Contract{}, fmt.Errorf("lower: invalid runtime_dispatch_symbol %q", symbol)
	}
	if argSlots <= 0 {
		argSlots = DefaultArgSlots
	}
	if argSlots > MaxArgSlots {
		return Contract{}, fmt.Errorf("lower: runtime_dispatch_arg_slots %d exceeds max %d", argSlots, MaxArgSlots)
	}
	return Contract{RuntimeDispatchSymbol: symbol, ArgSlots: argSlots}, nil
}

// ReplayKey stringifies the full boundary so tests and downstream readers
// can detect silent drift between a build and the shim it links against.
func (c Contract) ReplayKey() string {
	return fmt.Sprintf(
		"runtime_dispatch_symbol=%s;runtime_dispatch_arg_slots=%d;selector_global_ordering=lexicographic",
		c.RuntimeDispatchSymbol, c.ArgSlots,
	)
}

// BuildIRBoundary renders the header comment lines the emitter prepends
// to every IR module, rooted in this contract.
func BuildIRBoundary(c Contract) []string {
	return []string{
		"; lowering-contract: " + c.ReplayKey(),
		fmt.Sprintf("; runtime-dispatch-declaration: declare i32 @%s(i32, i32*, %s)", c.RuntimeDispatchSymbol, argList(c.ArgSlots)),
	}
}

func argList(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += "i32"
	}
	return s
}
