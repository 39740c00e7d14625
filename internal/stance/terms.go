package stance

func hawk(phrase string, weight float64) TermEntry {
	return TermEntry{Phrase: phrase, Direction: DirectionHawkish, Weight: weight}
}

func dove(phrase string, weight float64) TermEntry {
	return TermEntry{Phrase: phrase, Direction: DirectionDovish, Weight: weight}
}

// DefaultDictionaries returns the built-in policy and balance-sheet term
// lists. Each call returns fresh slices.
func DefaultDictionaries() Dictionaries {
	return Dictionaries{
		Policy:       defaultPolicyTerms(),
		BalanceSheet: defaultBalanceSheetTerms(),
	}
}

// interest rates
func defaultPolicyTerms() Dictionary {
	return Dictionary{
		hawk("raise rates", 1.0),
		hawk("rate hike", 1.0),
		hawk("rate increase", 0.9),
		hawk("tighten", 0.8),
		hawk("tightening", 0.8),
		hawk("restrictive", 0.7),
		hawk("sufficiently restrictive", 0.8),
		hawk("more restrictive", 0.9),
		hawk("higher for longer", 0.9),
		hawk("too high inflation", 0.8),
		hawk("inflation persistent", 0.7),
		hawk("inflation expectations unanchored", 0.9),
		hawk("price stability", 0.5),
		hawk("overheating", 0.7),
		hawk("hot economy", 0.6),
		hawk("strong labor market", 0.4),
		hawk("wage pressures", 0.6),
		hawk("wage growth", 0.4),
		hawk("upside risks to inflation", 0.8),
		hawk("not yet done", 0.6),
		hawk("more work to do", 0.6),
		hawk("premature", 0.7),
		hawk("premature to cut", 0.9),
		hawk("too soon to cut", 0.9),
		hawk("patient", 0.4),
		hawk("no rush", 0.5),
		hawk("no hurry", 0.5),
		hawk("cautious", 0.3),
		hawk("vigilant", 0.5),
		hawk("demand too strong", 0.6),
		hawk("above target", 0.5),
		hawk("sticky inflation", 0.7),
		hawk("core inflation elevated", 0.7),
		hawk("inflation not beaten", 0.7),
		hawk("further tightening", 0.9),
		hawk("additional rate increases", 0.9),
		hawk("bumpy road", 0.4),
		hawk("not convinced", 0.5),

		dove("cut rates", 1.0),
		dove("rate cut", 1.0),
		dove("rate reduction", 0.9),
		dove("lower rates", 0.8),
		dove("easing", 0.8),
		dove("ease policy", 0.9),
		dove("accommodative", 0.8),
		dove("more accommodative", 0.9),
		dove("support growth", 0.6),
		dove("support the economy", 0.6),
		dove("downside risks", 0.7),
		dove("recession risk", 0.8),
		dove("recession", 0.6),
		dove("slowdown", 0.6),
		dove("economic weakness", 0.7),
		dove("job losses", 0.7),
		dove("rising unemployment", 0.8),
		dove("unemployment", 0.4),
		dove("labor market softening", 0.7),
		dove("labor market cooling", 0.6),
		dove("inflation falling", 0.6),
		dove("inflation declining", 0.6),
		dove("disinflation", 0.7),
		dove("progress on inflation", 0.5),
		dove("inflation moving down", 0.6),
		dove("inflation heading toward target", 0.6),
		dove("maximum employment", 0.5),
		dove("full employment", 0.4),
		dove("below target", 0.5),
		dove("not restrictive enough", 0.3),
		dove("gradual", 0.3),
		dove("appropriate to reduce", 0.8),
		dove("time to cut", 0.9),
		dove("ready to cut", 0.9),
		dove("case for cutting", 0.8),
		dove("pause tightening", 0.6),
		dove("stop raising", 0.7),
		dove("overly restrictive", 0.8),
		dove("too restrictive", 0.8),
		dove("risks becoming too restrictive", 0.7),
		dove("balanced risks", 0.3),
		dove("soft landing", 0.5),
		dove("achieving soft landing", 0.5),
	}
}

// QT/QE
func defaultBalanceSheetTerms() Dictionary {
	return Dictionary{
		hawk("quantitative tightening", 0.9),
		hawk("reduce balance sheet", 0.9),
		hawk("shrink balance sheet", 0.8),
		hawk("reducing balance sheet", 0.7),
		hawk("balance sheet runoff", 0.7),
		hawk("reduce holdings", 0.7),
		hawk("treasury runoff", 0.6),
		hawk("mbs runoff", 0.6),
		hawk("normalize balance sheet", 0.6),
		hawk("balance sheet normalization", 0.6),
		hawk("too large balance sheet", 0.7),
		hawk("unwind", 0.5),
		hawk("wind down", 0.5),

		dove("quantitative easing", 0.9),
		dove("expand balance sheet", 0.9),
		dove("asset purchases", 0.8),
		dove("slow runoff", 0.8),
		dove("taper runoff", 0.8),
		dove("pause runoff", 0.9),
		dove("slow the pace of runoff", 0.8),
		dove("reinvest", 0.7),
		dove("reinvestment", 0.7),
		dove("maintain balance sheet", 0.4),
		dove("end qt", 0.9),
		dove("stop qt", 0.9),
		dove("ample reserves", 0.5),
		dove("reserve scarcity", 0.6),
		dove("repo pressures", 0.5),
	}
}
