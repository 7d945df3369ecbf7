package registry

import "strings"

// Builtin vocabulary. The method list deliberately does not try to cover
// the whole simulation library; anything missing still resolves as a
// passthrough method stage.

var environmentKinds = []string{"Mole", "Cell"}

var methodKinds = []string{
	// SCF family, molecular and periodic.
	"HF", "RHF", "ROHF", "UHF", "DHF",
	"KS", "RKS", "ROKS", "UKS", "DFT",
	"KHF", "KRHF", "KROHF", "KUHF",
	"KKS", "KRKS", "KUKS", "KDFT",
	// Multi-configurational methods, usually parametrized as KIND(ne,no).
	"CASCI", "CASSCF",
	// Common post-SCF methods.
	"MP2", "CCSD", "CISD", "FCI", "TDHF", "TDDFT",
}

var modifierKinds = []string{"ddCOSMO", "ddPCM"}

var propertyKinds = []string{"Gradients", "Hessian", "geomopt"}

// wrapperKeys are the nested option keys inside a method block that become
// chained post-construction calls, in the sense of mf.density_fit(...).
var wrapperKeys = []string{
	"density_fit", "mix_density_fit", "newton",
	"x2c", "sfx2c", "x2c1e", "sfx2c1e",
}

// New builds the builtin registry. The result is shared, read-only state:
// callers must treat it as frozen for the life of the process.
func New() *Registry {
	r := &Registry{
		kinds:    make(map[string]Entry),
		wrappers: make(map[string]bool),
	}
	add := func(names []string, c Category) {
		for _, n := range names {
			r.kinds[strings.ToLower(n)] = Entry{Kind: n, Category: c}
		}
	}
	add(environmentKinds, CategoryEnvironment)
	add(methodKinds, CategoryMethod)
	add(modifierKinds, CategoryModifier)
	add(propertyKinds, CategoryProperty)
	for _, w := range wrapperKeys {
		r.wrappers[strings.ToLower(w)] = true
	}
	return r
}
