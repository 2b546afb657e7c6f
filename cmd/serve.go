package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/metrics"
	"github.com/sertugser/assessai/internal/notify"
	"github.com/sertugser/assessai/internal/ocr"
	"github.com/sertugser/assessai/internal/scheduler"
	"github.com/sertugser/assessai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for the web frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}

		broker, err := notify.New(notify.RedisOptions{
			Addr:     rt.cfg.Notify.RedisAddr,
			Password: rt.cfg.Notify.RedisPassword,
			DB:       rt.cfg.Notify.RedisDB,
		}, rt.log)
		if err != nil {
			return fmt.Errorf("notify broker: %w", err)
		}
		defer broker.Close()

		m := metrics.New()
		rt.activities = activity.NewRegistry(rt.store.KV(),
			activity.WithLogger(rt.log), activity.WithPublisher(broker))

		ocrSvc := ocr.NewService(nil, rt.cfg.OCR.MaxUploadBytes)
		if rt.cfg.OCR.Enabled {
			rec, err := ocr.NewVision(ctx, ocr.VisionOptions{CredentialsFile: rt.cfg.OCR.CredentialsFile}, rt.log)
			if err != nil {
				rt.log.Warn("OCR disabled; Cloud Vision unavailable", "error", err)
			} else {
				ocrSvc = ocr.NewService(rec, rt.cfg.OCR.MaxUploadBytes)
			}
		}
		defer ocrSvc.Close()

		fb := rt.feedback(ctx, m)

		sched := scheduler.New(rt.cfg.Scheduler, fb, rt.store.EventRepo(), rt.log)
		if err := sched.Start(); err != nil {
			return err
		}

		srv := server.New(rt.cfg.Server, rt.cfg.OCR, server.Deps{
			Activities: rt.activities,
			Broker:     broker,
			Feedback:   fb,
			OCR:        ocrSvc,
			Metrics:    m,
			Log:        rt.log,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(gctx) })
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		rt.log.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
