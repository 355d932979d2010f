package patch

import "github.com/rs/zerolog"

// NopLogger is a zerolog.Logger that discards everything, used when a
// caller builds Driver without wiring one up explicitly (e.g. in tests).
var NopLogger = zerolog.Nop()

// logHunkOutcome emits the per-hunk progress line the driver prints for
// each applied or failed hunk, mirroring patch(1)'s familiar "Hunk #N
// succeeded/failed at Y" console output, routed through zerolog instead
// of fmt.Println so it composes with the rest of the CLI's structured
// logging.
func logHunkOutcome(log *zerolog.Logger, index int, outcome HunkOutcome, verbose bool) {
	n := index + 1
	if !outcome.Applied {
		log.Warn().
			Int("hunk", n).
			Msg("hunk failed")
		return
	}

	if outcome.Location.Fuzz == 0 && outcome.Location.Offset == 0 {
		if !verbose {
			return
		}
		log.Info().Int("hunk", n).Int64("line", outcome.Location.LineNumber+1).Msg("hunk succeeded")
		return
	}

	// Warn level, so the CLI's non-verbose logger still shows it.
	log.Warn().Int("hunk", n).
		Int64("line", outcome.Location.LineNumber+1).
		Int64("offset", outcome.Location.Offset).
		Int64("fuzz", outcome.Location.Fuzz).
		Msg("hunk succeeded")
}
