package attacks

import "rsacrack/src/attack"

// All is every single-key attack in registration order. Registration
// order is the tie-breaker the orchestrator uses within a speed bucket
// (SPEC_FULL.md §4.4), so cheaper/more-likely-to-fire attacks within a
// bucket are listed first.
var All = []attack.Attack{
	SmallPrime,
	FactorDB,
	Wiener,
	KnownD,
	KnownPhi,
	SumPQAttack,
	DiffPQAttack,
	PPlusQOver2,
	DPDQQInv,
	DPEKnown,
	DQEKnown,
	CubeRoot,
	Fermat,
	BonehDurfee,
	PollardRho,
	PollardPM1,
	WilliamsPP1,
	SmallESmallM,
	PartialPrimeBruteforce,
	DiscreteLogCipher,
	ECM,
}

// AllCross is every cross-key attack: strategies that need the full
// multi-key vector rather than a single Parameters value.
var AllCross = []attack.CrossAttack{
	CommonModulus,
	HastadBroadcast,
	CommonFactor,
}

// ByName looks up a single-key attack by its registered name.
func ByName(name string) (attack.Attack, bool) {
	for _, a := range All {
		if a.Name == name {
			return a, true
		}
	}
	return attack.Attack{}, false
}

// CrossByName looks up a cross-key attack by its registered name.
func CrossByName(name string) (attack.CrossAttack, bool) {
	for _, a := range AllCross {
		if a.Name == name {
			return a, true
		}
	}
	return attack.CrossAttack{}, false
}

// Names returns every registered attack name, single-key first then
// cross-key, for --list.
func Names() []string {
	names := make([]string, 0, len(All)+len(AllCross))
	for _, a := range All {
		names = append(names, a.Name)
	}
	for _, a := range AllCross {
		names = append(names, a.Name)
	}
	return names
}
