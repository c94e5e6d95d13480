// Package display renders the terminal side of labourcheck: question progress,
// warnings and the colored scorecard shown after a run.
//
// Everything writes to an io.Writer. Color is opt-in per call site so piped output
// stays plain:
//
//	p := display.NewQuestionProgress(os.Stdout, cat.Len(), true)
//	p.Show(question, state.Progress())
//	...
//	display.NewScorecard(true).Write(os.Stdout, &report)
package display
