package assistant

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tOgg1/pedrito/internal/logging"
	"github.com/tOgg1/pedrito/internal/models"
	"github.com/tOgg1/pedrito/internal/normalize"
	"github.com/tOgg1/pedrito/internal/upstream"
)

// Briefing is one fetch of the loop list, people directory and (optionally)
// digest. Each part fails independently.
type Briefing struct {
	Loops     []models.Loop
	LoopsErr  error
	Directory normalize.Directory
	PeopleErr error

	WithDigest bool
	Digest     *models.DigestSummary
	DigestErr  error
}

// FetchBriefing fetches loops, people and optionally the digest concurrently
// and normalizes the loops against the directory. A people failure leaves
// the directory empty and never fails the loops. A loops or digest body that
// is not JSON fails that part; valid JSON matching no collection is empty.
func FetchBriefing(ctx context.Context, f upstream.Fetcher, n *normalize.Normalizer, withDigest bool) Briefing {
	out := Briefing{WithDigest: withDigest}
	var loopsBody, peopleBody []byte

	var g errgroup.Group
	g.Go(func() error {
		loopsBody, out.LoopsErr = f.OpenLoops(ctx)
		return nil
	})
	g.Go(func() error {
		peopleBody, out.PeopleErr = f.People(ctx)
		return nil
	})
	if withDigest {
		g.Go(func() error {
			body, err := f.Digest(ctx)
			if err != nil {
				out.DigestErr = err
				return nil
			}
			raw, err := normalize.DecodeStrict(body)
			if err != nil {
				out.DigestErr = err
				return nil
			}
			out.Digest = normalize.ParseDigest(raw)
			return nil
		})
	}
	_ = g.Wait()

	if out.PeopleErr != nil {
		logger := logging.Component("assistant")
		logger.Debug().Err(out.PeopleErr).Msg("people directory unavailable")
		out.Directory = normalize.Directory{}
	} else {
		out.Directory = normalize.ParseDirectory(normalize.Decode(peopleBody))
	}
	if out.LoopsErr != nil {
		return out
	}
	// A body that is not JSON is a failure, not an empty list: treating it as
	// authoritative would prune every dismissal.
	raw, err := normalize.DecodeStrict(loopsBody)
	if err != nil {
		out.LoopsErr = err
		return out
	}
	out.Loops = n.NormalizeAll(raw, out.Directory)
	return out
}
