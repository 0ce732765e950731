package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

const DefaultSessionCleanupSpec = "@hourly"

// StartSessionCleaner purges expired sessions on the given cron schedule until
// ctx is done.
func (s *Service) StartSessionCleaner(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSessionCleanupSpec
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.purgeOnce(ctx) }); err != nil {
		return fmt.Errorf("session cleanup schedule %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (s *Service) purgeOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.PurgeExpired(ctx)
	if err != nil {
		log.Printf("cleanup sessions error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("cleanup sessions: removed %d expired", n)
	}
}
