package calendar

func rate(lower, upper float64) *RateRange {
	return &RateRange{Lower: lower, Upper: upper}
}

func fomc(start, end string) Meeting {
	return Meeting{StartDate: start, EndDate: end}
}

func fomcHold(start, end, note string) Meeting {
	return Meeting{StartDate: start, EndDate: end, Decision: DecisionHold, Rate: rate(4.25, 4.50), Note: note}
}

// FOMC meets over two days, eight times a year.
var fomcMeetings = []Meeting{
	fomcHold("2025-01-28", "2025-01-29", "Held steady; noted inflation progress slowing"),
	fomcHold("2025-03-18", "2025-03-19", "Maintained rates; watching tariff uncertainty"),
	fomcHold("2025-05-06", "2025-05-07", "Held rates; labor market remains solid"),
	fomcHold("2025-06-17", "2025-06-18", "No change; data-dependent approach emphasized"),
	fomcHold("2025-07-29", "2025-07-30", "Held steady; inflation still above 2% target"),
	fomcHold("2025-09-16", "2025-09-17", "Maintained rates; watching incoming data"),
	fomcHold("2025-10-28", "2025-10-29", "No change; risks roughly balanced"),
	fomcHold("2025-12-16", "2025-12-17", "Held rates; SEP unchanged from September"),
	fomcHold("2026-01-27", "2026-01-28", "Maintained rates; watching policy uncertainty"),
	fomc("2026-03-17", "2026-03-18"),
	fomc("2026-05-05", "2026-05-06"),
	fomc("2026-06-16", "2026-06-17"),
	fomc("2026-07-28", "2026-07-29"),
	fomc("2026-09-15", "2026-09-16"),
	fomc("2026-10-27", "2026-10-28"),
	fomc("2026-12-15", "2026-12-16"),
}

func mpc(date string) Meeting {
	return Meeting{StartDate: date, EndDate: date}
}

func mpcDecision(date, decision string, bankRate float64, votes, note string) Meeting {
	return Meeting{
		StartDate: date,
		EndDate:   date,
		Decision:  decision,
		Rate:      rate(bankRate, bankRate),
		VoteSplit: votes,
		Note:      note,
	}
}

// The MPC announces on a Thursday, eight times a year. Only the announcement
// day is tracked.
var boeMeetings = []Meeting{
	mpcDecision("2025-02-06", "-25", 4.50, "7-2", "Cut to 4.50%; Dhingra and Taylor voted for 50bp cut"),
	mpcDecision("2025-03-20", DecisionHold, 4.50, "8-1", "Held at 4.50%; Dhingra voted for cut"),
	mpcDecision("2025-05-08", "-25", 4.25, "5-4", "Cut to 4.25%; Mann surprised with 50bp cut vote"),
	mpcDecision("2025-06-19", DecisionHold, 4.25, "7-2", "Held at 4.25%; watching services inflation"),
	mpcDecision("2025-08-07", "-25", 4.00, "6-3", "Cut to 4.00%; gradual easing path"),
	mpcDecision("2025-09-18", DecisionHold, 4.00, "7-2", "Held at 4.00%; cautious approach"),
	mpcDecision("2025-11-06", "-25", 3.75, "6-3", "Cut to 3.75%; inflation progress continues"),
	mpcDecision("2025-12-18", DecisionHold, 3.75, "7-2", "Held at 3.75%; assessing inflation outlook"),
	mpcDecision("2026-02-06", "-25", 3.50, "7-2", "Cut to 3.50%; gradual easing continues"),
	mpc("2026-03-20"),
	mpc("2026-05-07"),
	mpc("2026-06-19"),
	mpc("2026-08-06"),
	mpc("2026-09-17"),
	mpc("2026-11-05"),
	mpc("2026-12-17"),
}
