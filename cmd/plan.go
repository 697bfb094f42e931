package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
	"github.com/wayfare-group/trip-planner-cli/internal/store"
)

var (
	planDestination  string
	planInterests    []string
	planBudget       string
	planDuration     int
	planStartDate    string
	planEndDate      string
	planVacationType string
	planGroupSize    int
	planHotels       bool
	planMaxPOIs      int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip for a single destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPlanner(ctx, "plan")
		if err != nil {
			return err
		}
		defer env.Close()

		prefs := model.Preferences{
			Interests:     planInterests,
			Budget:        model.BudgetTier(planBudget),
			DurationDays:  planDuration,
			StartDate:     planStartDate,
			EndDate:       planEndDate,
			GroupSize:     planGroupSize,
			MaxPOIs:       planMaxPOIs,
			IncludeHotels: planHotels,
			VacationType:  planVacationType,
		}
		// A date range drives the duration unless --duration was set.
		if planEndDate != "" && !cmd.Flags().Changed("duration") {
			prefs.DurationDays = 0
		}

		run, err := env.Store.CreateRun(ctx, planDestination, prefs)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		if err := env.Store.UpdateRunStatus(ctx, run.ID, model.RunStatusPlanning); err != nil {
			return eris.Wrap(err, "update run status")
		}

		evCh, unsubscribe := env.Bus.Subscribe()
		defer unsubscribe()
		recorderDone := recordStages(ctx, env.Store, run.ID, evCh)

		result, runErr := env.Pipeline.Run(ctx, planDestination, prefs)

		unsubscribe()
		<-recorderDone

		status := runStatusFor(result, runErr)
		if err := env.Store.CompleteRun(ctx, run.ID, status, result); err != nil {
			zap.L().Error("failed to persist run result", zap.String("run_id", run.ID), zap.Error(err))
		}

		if runErr != nil {
			return eris.Wrap(runErr, "planning run")
		}

		zap.L().Info("planning complete",
			zap.String("run_id", run.ID),
			zap.String("destination", planDestination),
			zap.String("status", string(status)),
			zap.Int("pois", len(result.POIs)),
			zap.Int("hotels", len(result.Hotels)),
			zap.Int("provider_errors", len(result.Errors)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// runStatusFor maps a pipeline outcome onto a stored run status.
func runStatusFor(result *model.TripResult, err error) model.RunStatus {
	switch {
	case err != nil:
		return model.RunStatusFailed
	case result != nil && len(result.Errors) > 0:
		return model.RunStatusDegraded
	default:
		return model.RunStatusComplete
	}
}

// recordStages consumes stage events and persists a row per stage. The
// returned channel closes once the event channel does.
func recordStages(ctx context.Context, st store.Store, runID string, evCh <-chan model.StageEvent) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		var openStage *model.RunStage
		var openedAt time.Time

		closeOpen := func(status string) {
			if openStage == nil {
				return
			}
			durMS := time.Since(openedAt).Milliseconds()
			if err := st.CompleteStage(ctx, openStage.ID, status, durMS, ""); err != nil {
				zap.L().Warn("failed to complete stage record",
					zap.String("stage", string(openStage.Stage)),
					zap.Error(err),
				)
			}
			openStage = nil
		}

		for ev := range evCh {
			switch ev.Stage {
			case model.StageDone:
				closeOpen("complete")
			case model.StageFailed:
				closeOpen("failed")
			default:
				closeOpen("complete")
				rec, err := st.CreateStage(ctx, runID, ev.Stage)
				if err != nil {
					zap.L().Warn("failed to create stage record",
						zap.String("stage", string(ev.Stage)),
						zap.Error(err),
					)
					continue
				}
				openStage = rec
				openedAt = time.Now()
			}
		}
		closeOpen("complete")
	}()

	return done
}

func init() {
	planCmd.Flags().StringVar(&planDestination, "destination", "", "destination to plan for (required)")
	planCmd.Flags().StringSliceVar(&planInterests, "interests", nil, "traveler interests (e.g. temples,nature)")
	planCmd.Flags().StringVar(&planBudget, "budget", "medium", "budget tier: low, medium, high")
	planCmd.Flags().IntVar(&planDuration, "duration", 3, "trip duration in days")
	planCmd.Flags().StringVar(&planStartDate, "start-date", "", "trip start date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&planEndDate, "end-date", "", "trip end date (YYYY-MM-DD)")
	planCmd.Flags().StringVar(&planVacationType, "vacation-type", "", "vacation type from the interests registry")
	planCmd.Flags().IntVar(&planGroupSize, "group-size", 0, "number of travelers")
	planCmd.Flags().BoolVar(&planHotels, "hotels", false, "include hotel suggestions")
	planCmd.Flags().IntVar(&planMaxPOIs, "max-pois", 0, "cap on ranked POIs (default from config)")
	_ = planCmd.MarkFlagRequired("destination")
	rootCmd.AddCommand(planCmd)
}
