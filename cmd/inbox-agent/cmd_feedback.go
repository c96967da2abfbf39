package main

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ignite/inbox-agent/internal/config"
	"github.com/ignite/inbox-agent/internal/domain"
	"github.com/ignite/inbox-agent/internal/store"
)

// newFeedbackCmd implements `feedback --message-id ID --corrected BUCKET
// [--note TEXT]` (§6): submit a correction, persist it, and feed it to the
// FeedbackLearner so future scoring reflects it (§4.6).
func newFeedbackCmd() *cobra.Command {
	var messageID, correctedStr, note string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit a correction for a message's decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			if messageID == "" || correctedStr == "" {
				return fail(exitUserError, errors.New("--message-id and --corrected are required"))
			}
			corrected := domain.Bucket(correctedStr)
			if !isValidBucket(corrected) {
				return fail(exitUserError, errors.New("--corrected must be one of PRIORITY_INBOX|REGULAR_INBOX|AUTO_ARCHIVE|SPAM_FOLDER"))
			}

			cfg, err := config.LoadFromEnv(configPath)
			if err != nil {
				return fail(exitUserError, err)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fail(exitUserError, err)
			}
			defer a.Close()

			message, err := a.store.GetMessage(cmd.Context(), messageID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fail(exitUserError, err)
				}
				return fail(exitStorageError, err)
			}

			decision, err := a.store.GetDecision(cmd.Context(), messageID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					return fail(exitStorageError, err)
				}
				decision = &domain.Decision{}
			}

			fb := domain.Feedback{
				ID:               uuid.NewString(),
				MessageID:        messageID,
				OriginalDecision: decision.Bucket,
				CorrectedBucket:  corrected,
				UserNote:         note,
				StampedAt:        time.Now(),
			}

			if err := a.store.RecordFeedback(cmd.Context(), &fb); err != nil {
				return fail(exitStorageError, err)
			}

			// Attribute the correction back to whichever rules fired on the
			// original decision (§4.2 audit trail, §4.6 rule performance
			// tracking): a rule's prediction held up iff the user's
			// corrected bucket matches what it originally contributed to.
			if decision.Bucket != "" {
				correct := fb.CorrectedBucket == decision.Bucket
				for _, ruleID := range decision.FiredRuleIDs {
					if _, err := a.learner.TrackRuleMatch(cmd.Context(), ruleID, correct); err != nil {
						return fail(exitStorageError, err)
					}
				}
			}

			a.learner.OnFeedback(cmd.Context(), fb, *message, a.index)
			cmd.Printf("recorded feedback for %s: %s -> %s\n", messageID, fb.OriginalDecision, fb.CorrectedBucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&messageID, "message-id", "", "ID of the message being corrected")
	cmd.Flags().StringVar(&correctedStr, "corrected", "", "corrected bucket")
	cmd.Flags().StringVar(&note, "note", "", "optional free-text note")
	return cmd
}

func isValidBucket(b domain.Bucket) bool {
	switch b {
	case domain.BucketPriorityInbox, domain.BucketRegularInbox, domain.BucketAutoArchive, domain.BucketSpamFolder:
		return true
	default:
		return false
	}
}
