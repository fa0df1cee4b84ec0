package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/cameramfd/extension/internal/config"
	"github.com/cameramfd/extension/internal/dispatcher"
	"github.com/cameramfd/extension/internal/handlers"
	"github.com/cameramfd/extension/internal/influx"
	"github.com/cameramfd/extension/internal/logging"
	"github.com/cameramfd/extension/internal/monitor"
	intOtel "github.com/cameramfd/extension/internal/otel"
	"github.com/cameramfd/extension/internal/registry"
	"github.com/cameramfd/extension/internal/render"
	"github.com/cameramfd/extension/internal/render/wsview"
	"github.com/cameramfd/extension/internal/storage"
	"github.com/cameramfd/extension/pkg/hostapi"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "camera_mfd"
)

// process state
var (
	Env              config.Env
	SessionStartTime time.Time = time.Now()
	// SessionID tags exported telemetry of this run
	SessionID = uuid.NewString()

	LogFilePath string
	LogFile     *os.File

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager
	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger
	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	handlerService  *handlers.Service
	monitorService  *monitor.Service
	eventDispatcher *dispatcher.Dispatcher
	storageBackend  storage.Backend
	poseTelemetry   *influx.Manager
	renderBackend   render.Backend
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "export", "list":
			if err := runCLI(args, os.Stdout); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "version":
			fmt.Println(CurrentExtensionVersion, BuildDate)
			return
		}
	}

	if err := setup(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	serve(os.Stdin, os.Stdout)
	shutdown()
}

// bootstrap reads the environment and the settings file.
func bootstrap() error {
	var err error
	Env, err = config.ParseEnv()
	if err != nil {
		return err
	}
	if err := config.Load(Env.ConfigDir); err != nil {
		// defaults are still in place
		fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
	}
	if Env.LogLevel != "" {
		viper.Set("logLevel", Env.LogLevel)
	}
	return nil
}

func setup() error {
	if err := bootstrap(); err != nil {
		return err
	}

	// stdout carries host responses, so logs never go there
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(os.Stderr, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	var err error
	LogFile, LogFilePath, err = logging.OpenSessionLog(viper.GetString("logsDir"), ExtensionName, SessionStartTime)
	if err != nil {
		Logger.Error("Failed to open session log", "error", err, "path", LogFilePath)
	}

	var logOut io.Writer = os.Stderr
	if LogFile != nil {
		logOut = LogFile
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: CurrentExtensionVersion,
			SessionID:      SessionID,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logOut,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}

	if viper.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			SlogManager.UseGraylog(w)
		}
	}

	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.UseContext(func() []slog.Attr {
		if handlerService == nil {
			return nil
		}
		return handlerService.LogContext()
	})
	SlogManager.Setup(logOut, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Starting", "session", SessionID, "version", CurrentExtensionVersion, "build", BuildDate, "addonDir", Env.AddonDir)

	zlog := zerolog.New(logOut).With().Timestamp().Str("component", "dispatcher").Logger().
		Level(zerologLevel(viper.GetString("logLevel")))

	var meter metric.Meter
	if OTelProvider != nil {
		meter = OTelProvider.Meter(dispatcher.InstrumentationName)
	}
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zlog), meter)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	if err := initStorage(); err != nil {
		// the session still works, :SAVE: and :LOAD: report the missing backend
		Logger.Error("Storage initialization failed", "error", err)
	}
	initTelemetry(zlog.With().Str("component", "influx").Logger())
	initRender()

	scenarioCfg := config.GetScenarioConfig()
	renderCfg := config.GetRenderConfig()
	deps := handlers.Dependencies{
		Registry:         registry.New(),
		Render:           renderBackend,
		LogManager:       SlogManager,
		ConfigFs:         afero.NewBasePathFs(afero.NewOsFs(), Env.AddonDir),
		ConfigDir:        scenarioCfg.ConfigDir,
		Width:            renderCfg.Width,
		Height:           renderCfg.Height,
		ExtensionVersion: CurrentExtensionVersion,
		BuildDate:        BuildDate,
	}
	if poseTelemetry != nil {
		deps.Poses = poseTelemetry
	}
	handlerService = handlers.NewService(deps)
	handlerService.SetBackend(storageBackend)
	handlerService.Register(eventDispatcher)

	Logger.Info("Handlers registered")

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager: SlogManager,
		Sample:     sampleStatus,
		StatusPath: filepath.Join(Env.AddonDir, "status.txt"),
	})
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}
	return nil
}

// pendingWriter is implemented by the gorm-backed stores.
type pendingWriter interface {
	Pending() int
}

func sampleStatus() monitor.Status {
	st := monitor.Status{
		Time:    time.Now(),
		Storage: config.GetStorageConfig().Type,
	}
	if handlerService != nil {
		st.OpenInstruments = handlerService.OpenCount()
		st.CameraSets = handlerService.CameraSetCount()
	}
	if pw, ok := storageBackend.(pendingWriter); ok {
		st.PendingWrites = pw.Pending()
	}
	return st
}

func zerologLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func initTelemetry(log zerolog.Logger) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}
	m := influx.NewManager(log, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Connect(ctx); err != nil {
		Logger.Error("Pose telemetry unavailable", "error", err)
		return
	}
	poseTelemetry = m
}

func initRender() {
	cfg := config.GetRenderConfig()
	if !cfg.Enabled {
		renderBackend = render.Nop{}
		return
	}
	b := wsview.New(wsview.Config{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Session: SessionStartTime.UTC().Format(time.RFC3339),
		Version: CurrentExtensionVersion,
	}, Logger)
	if err := b.Init(); err != nil {
		Logger.Error("Viewer connection failed, rendering disabled", "error", err, "url", cfg.URL)
		renderBackend = render.Nop{}
		return
	}
	Logger.Info("Viewer connected", "url", cfg.URL)
	renderBackend = b
}

// serve answers COMMAND|arg|arg lines from r until EOF. ":QUIT:" ends early.
func serve(r io.Reader, w io.Writer) {
	host := hostapi.NewHost(CurrentExtensionVersion, eventDispatcher)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":QUIT:" {
			return
		}
		fmt.Fprintln(w, host.Call(line))
	}
	if err := scanner.Err(); err != nil {
		Logger.Error("Reading commands failed", "error", err)
	}
}

func shutdown() {
	Logger.Info("Shutting down")

	if monitorService != nil {
		monitorService.Stop()
	}

	if handlerService != nil {
		if err := handlerService.CloseAll(); err != nil {
			Logger.Warn("Closing instruments failed", "error", err)
		}
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Closing storage failed", "error", err)
		}
	}
	if poseTelemetry != nil {
		if err := poseTelemetry.Close(); err != nil {
			Logger.Error("Closing pose telemetry failed", "error", err)
		}
	}
	if b, ok := renderBackend.(*wsview.Backend); ok {
		_ = b.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "OTel shutdown failed: %v\n", err)
		}
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}
