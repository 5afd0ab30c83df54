package lexicon

// Default returns the built-in lexicon covering the stock skills. Misspelled
// variants mirror the vocabularies users actually type; fuzzy distances are
// kept tight so unrelated words do not leak into an intent.
func Default() *Lexicon {
	l := New()

	// Intent declaration order doubles as the last-resort tie-break order,
	// so the specific skills come before smalltalk.
	mustAdd(l, "weather",
		Fuzzy("weather", 2),
		Exact("wether"),
		Exact("wheather"),
		Fuzzy("temperature", 2),
		Exact("sunny"),
		Exact("cloudy"),
		Exact("clody"),
		Exact("rain"),
		Fuzzy("climate", 1),
	)
	mustAdd(l, "forecast",
		Fuzzy("forecast", 2),
		Exact("forcast"),
		Fuzzy("prediction", 1),
		Fuzzy("outlook", 1),
		Exact("week ahead"),
		Exact("next few days"),
	)
	mustAdd(l, "joke",
		Exact("joke"),
		Exact("jok"),
		Fuzzy("funny", 1),
		Exact("laugh"),
		Exact("make me laugh"),
		Exact("make me laf"),
	)
	mustAdd(l, "quote",
		Fuzzy("quote", 1),
		Exact("qoute"),
		Fuzzy("inspire", 1),
		Fuzzy("motivate", 1),
		Fuzzy("motivation", 2),
	)
	mustAdd(l, "datetime",
		Exact("time"),
		Exact("date"),
		Exact("what day"),
		Exact("today"),
		Exact("tomorrow"),
		Fuzzy("calendar", 1),
		Exact("month"),
		Exact("year"),
	)
	mustAdd(l, "tasks",
		Exact("task"),
		Exact("tasks"),
		Exact("todo"),
		Exact("to do"),
		Exact("add task"),
		Exact("show tasks"),
		Fuzzy("reminder", 1),
		Fuzzy("productivity", 2),
	)
	mustAdd(l, "smalltalk",
		Exact("hi"),
		Exact("hello"),
		Exact("hey"),
		Exact("helo"),
		Exact("good morning"),
		Exact("good evening"),
		Exact("how are you"),
		Exact("how r u"),
		Exact("thanks"),
		Exact("thank you"),
		Exact("bye"),
		Exact("goodbye"),
		Exact("who are you"),
		Exact("chat"),
		Exact("talk"),
	)

	return l
}

func mustAdd(l *Lexicon, intent string, entries ...Entry) {
	if err := l.Add(intent, entries...); err != nil {
		panic(err)
	}
}
