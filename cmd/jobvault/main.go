// cmd/jobvault/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"jobvault/internal/common/config"
	apperrors "jobvault/internal/common/errors"
	"jobvault/internal/common/logger"
	"jobvault/internal/common/observability"
	"jobvault/internal/common/paths"
	"jobvault/internal/jobstore"
	"jobvault/internal/models"
	"jobvault/internal/profile"
	"jobvault/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the exit status. Any error that
// reaches the top is logged and printed as a report.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{log: logger.NewNoOpLogger(), now: time.Now}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	a.close(stderr)
	return apperrors.NewErrorHandler(a.log, stderr).Handle(err)
}

type options struct {
	configFile  string
	userID      string
	dataDir     string
	dumpMetrics bool
}

// app holds the per-invocation dependencies. Storage and the profile
// document are opened on first use.
type app struct {
	opts options
	now  func() time.Time

	cfg      *config.Config
	log      logger.Logger
	profile  *paths.Profile
	registry *prometheus.Registry
	obs      *observability.Observability

	store    *jobstore.Store
	tracker  *tracker.Service
	docs     *profile.Documents
	sections []models.SectionSchema
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "jobvault",
		Short:         "Local job application tracker and CV profile editor",
		Long:          "jobvault keeps job applications in a per-user SQLite database and edits the CV sections of the user's profile document.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configFile, "config", "", "Path to a config.yaml (default: ./configs/config.yaml or ./config.yaml)")
	flags.StringVarP(&a.opts.userID, "user", "u", "", "User profile to work on (overrides app.user_id)")
	flags.StringVar(&a.opts.dataDir, "data-dir", "", "Application data root (overrides app.data_dir)")
	flags.BoolVar(&a.opts.dumpMetrics, "metrics", false, "Print collected metrics to stderr on exit")

	root.AddCommand(
		newAddCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newAttachCmd(a),
		newExportCmd(a),
		newHintsCmd(a),
		newSectionsCmd(a),
		newSectionCmd(a),
		newPathsCmd(a),
	)
	return root
}

func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.opts.configFile != "" {
		cfg, err = config.LoadFromFile(a.opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.opts.userID != "" {
		cfg.App.UserID = a.opts.userID
	}
	if a.opts.dataDir != "" {
		cfg.App.DataDir = a.opts.dataDir
	}
	a.cfg = cfg
	a.log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	a.profile, err = paths.ForUser(paths.Layout{
		AppName:        cfg.App.Name,
		DataDir:        cfg.App.DataDir,
		DatabaseFile:   cfg.Database.FileName,
		ConfigFileName: cfg.Profile.ConfigFileName,
	}, cfg.App.UserID)
	if err != nil {
		return apperrors.NewStorageOpenError(cfg.App.DataDir, err)
	}

	a.registry = prometheus.NewRegistry()
	a.obs = observability.New("jobvault", a.registry, a.log)
	a.log.Debug("profile resolved", map[string]interface{}{
		"user":    cfg.App.UserID,
		"profile": a.profile.User,
	})
	return nil
}

// jobs opens the job store and the tracker service over it.
func (a *app) jobs(ctx context.Context) (*tracker.Service, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	store, err := jobstore.Open(ctx, a.profile.DB, a.log)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.tracker = tracker.New(store, a.cfg.Database.ListLimit, a.log)
	return a.tracker, nil
}

// documents returns the profile document and the section definitions.
func (a *app) documents() (*profile.Documents, []models.SectionSchema) {
	if a.docs == nil {
		a.docs = profile.NewDocuments(a.profile.Config, a.log, a.obs)
		a.sections = profile.LoadSchemaPath(a.cfg.Profile.SchemaPath, a.log)
	}
	return a.docs, a.sections
}

func (a *app) section(name string) (*profile.Documents, models.SectionSchema, error) {
	docs, sections := a.documents()
	section, ok := profile.FindSection(sections, name)
	if !ok {
		return nil, models.SectionSchema{}, fmt.Errorf("unknown section %q", name)
	}
	return docs, section, nil
}

func (a *app) close(stderr io.Writer) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("closing job store failed", nil)
		}
	}
	if a.opts.dumpMetrics && a.registry != nil {
		writeMetrics(stderr, prometheus.Gatherers{prometheus.DefaultGatherer, a.registry})
	}
	a.obs.Shutdown()
	_ = a.log.Sync()
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintf(w, "# gather failed: %v\n", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return
		}
	}
}
