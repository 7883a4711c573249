// Package errors provides structured, coded errors for bloc.
//
// Every error carries a code (e.g. "B101"), a category and a short
// message taken from the registry, plus optional detail, hint and the
// wrapped cause:
//
//	err := errors.New("B101").
//	    WithDetail(`component "Counter" is not known to its owner`).
//	    WithSuggestion("Register the type in the owner's Registry.Components map")
//
//	fmt.Println(err.Format())
//	// ERROR B101: Unknown component
//	//
//	//   component "Counter" is not known to its owner
//	//
//	//   Hint: Register the type in the owner's Registry.Components map
//
// Terminal colouring goes through github.com/fatih/color and follows its
// NoColor detection; DisableColors forces plain output.
package errors
