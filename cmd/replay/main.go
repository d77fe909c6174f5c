// Command replay reconstructs a session's mood trajectory from a persona, a
// seed, and a transcript of trainee lines read from stdin (one per line).
// Pinning the seed of a recorded session reproduces its trajectory exactly.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pitchdojo/pitchdojo/internal/platform/config"
	"github.com/pitchdojo/pitchdojo/internal/trainer/app"
)

func main() {
	personaID := flag.String("persona", "saas-skeptic", "persona id to replay against")
	seed := flag.Int64("seed", 0, "session seed (from the recorded session)")
	flag.Parse()

	var utterances []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			utterances = append(utterances, line)
		}
	}
	if err := scanner.Err(); err != nil {
		config.Exitf("read transcript: %v", err)
	}
	if len(utterances) == 0 {
		config.Exitf("no utterances on stdin; pipe one trainee line per row")
	}

	engine := app.NewEngine(nil, nil, nil, nil)
	states, err := engine.Replay(*personaID, *seed, utterances)
	if err != nil {
		config.Exitf("replay: %v", err)
	}

	for i, state := range states {
		fmt.Printf("turn %2d: trust=%5.1f interest=%5.1f irritation=%5.1f urgency=%5.1f  %q\n",
			i+1, state.Trust, state.Interest, state.Irritation, state.Urgency, utterances[i])
	}
}
