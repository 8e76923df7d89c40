package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ubxgo/internal/bus"
	"ubxgo/internal/config"
	"ubxgo/internal/logging"
	"ubxgo/internal/monitor"
	"ubxgo/internal/persistence"
	"ubxgo/internal/session"
	"ubxgo/internal/transport"
	"ubxgo/internal/ubx"
)

const (
	defaultTCPPort = 2001
	appDirName     = "ubxgo"
)

type appPaths struct {
	ConfigFile string
	LogFile    string
	DBFile     string
}

func main() {
	if err := run(); err != nil {
		slog.Error("run debug tool", "error", err)
		os.Exit(1)
	}
}

func run() error {
	connector := flag.String("connector", "", "connector type (serial, tcp)")
	serialPort := flag.String("port", "", "serial port, e.g. /dev/ttyACM0")
	serialBaud := flag.Int("baud", 0, "serial baud rate")
	host := flag.String("host", "", "tcp host running a serial bridge")
	tcpPort := flag.Int("tcp-port", defaultTCPPort, "tcp port of the serial bridge")
	listenFor := flag.Duration("listen-for", 0, "listen duration, e.g. 30s")
	fixRate := flag.Uint("fix-rate", config.DefaultTrackRateHz, "navigation solution rate divider")
	record := flag.Bool("record", false, "record fixes into the local track database")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := resolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(&cfg, *connector, *serialPort, *serialBaud, *host, *record)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()
	mon := monitor.New(logMgr.Logger("monitor"), b)

	var repo *persistence.FixRepo
	var writer *persistence.WriterQueue
	if cfg.Storage.RecordTrack {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			return fmt.Errorf("open track db: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("close track db", "error", closeErr)
			}
		}()
		repo = persistence.NewFixRepo(db)
		writer = persistence.NewWriterQueue(logMgr.Logger("persistence"), 256)
		writer.Start(ctx)
		if cfg.Storage.RetainDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Storage.RetainDays)
			if pruned, err := repo.PruneOlderThan(ctx, cutoff); err != nil {
				logger.Warn("prune track db", "error", err)
			} else if pruned > 0 {
				logger.Info("pruned old track points", "count", pruned)
			}
		}
	}

	watch(ctx, b, logger, writer, repo)

	sess := session.New(logMgr.Logger("session"))
	sess.SetAckTimeout(time.Duration(cfg.Receiver.AckTimeoutMS) * time.Millisecond)
	sess.SetFrameObserver(mon.FrameObserver())
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Warn("close session", "error", closeErr)
		}
	}()

	if err := connect(ctx, sess, mon, cfg.Connection, *tcpPort); err != nil {
		return err
	}

	version, err := session.PollAndRead[ubx.MonVer](ctx, sess, 0)
	if err != nil {
		logger.Warn("poll receiver version", "error", err)
	} else {
		logger.Info("receiver version", "sw", version.SWVersion, "hw", version.HWVersion, "extensions", strings.Join(version.Extensions, " "))
	}

	if err := applyReceiverConfig(ctx, sess, logger, cfg.Receiver); err != nil {
		return err
	}

	handle, err := session.SubscribeRate(ctx, sess, mon.PublishFix, uint8(*fixRate))
	if err != nil {
		return fmt.Errorf("subscribe navigation solutions: %w", err)
	}
	defer sess.Unsubscribe(handle)

	svinHandle, err := session.Subscribe[ubx.NavSvin](sess, mon.PublishSurveyIn)
	if err != nil {
		return fmt.Errorf("subscribe survey-in status: %w", err)
	}
	defer sess.Unsubscribe(svinHandle)

	if *listenFor > 0 {
		logger.Info("listen mode", "duration", *listenFor)
		select {
		case <-ctx.Done():
		case <-time.After(*listenFor):
		}

		return nil
	}

	logger.Info("listening until interrupt")
	<-ctx.Done()

	return nil
}

func resolvePaths() (appPaths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return appPaths{}, fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return appPaths{}, fmt.Errorf("create app dir: %w", err)
	}

	return appPaths{
		ConfigFile: filepath.Join(dir, "config.json"),
		LogFile:    filepath.Join(dir, "ubxgo.log"),
		DBFile:     filepath.Join(dir, "track.db"),
	}, nil
}

func applyFlagOverrides(cfg *config.AppConfig, connector, serialPort string, serialBaud int, host string, record bool) {
	if strings.TrimSpace(connector) != "" {
		cfg.Connection.Connector = config.ConnectorType(connector)
	}
	if strings.TrimSpace(serialPort) != "" {
		cfg.Connection.SerialPort = strings.TrimSpace(serialPort)
	}
	if serialBaud > 0 {
		cfg.Connection.SerialBaud = serialBaud
	}
	if strings.TrimSpace(host) != "" {
		cfg.Connection.Host = strings.TrimSpace(host)
	}
	if record {
		cfg.Storage.RecordTrack = true
	}
	cfg.FillMissingDefaults()
}

func connect(ctx context.Context, sess *session.Session, mon *monitor.Monitor, conn config.ConnectionConfig, tcpPort int) error {
	switch conn.Connector {
	case config.ConnectorSerial:
		tr := transport.NewSerialTransport(conn.SerialPort, conn.SerialBaud)
		mon.PublishStatus(monitor.ConnectionStateConnecting, tr.Name(), tr.StatusTarget(), nil)
		err := sess.InitializeSerial(ctx, tr, uint32(conn.SerialBaud), ubx.ProtoUBX|ubx.ProtoRTCM3, ubx.ProtoUBX)
		if err != nil {
			mon.PublishStatus(monitor.ConnectionStateDisconnected, tr.Name(), tr.StatusTarget(), err)

			return fmt.Errorf("initialize serial session: %w", err)
		}
		mon.PublishStatus(monitor.ConnectionStateConnected, tr.Name(), tr.StatusTarget(), nil)
	case config.ConnectorTCP:
		tr := transport.NewTCPTransport(conn.Host, tcpPort)
		mon.PublishStatus(monitor.ConnectionStateConnecting, tr.Name(), tr.StatusTarget(), nil)
		if err := sess.Initialize(ctx, tr); err != nil {
			mon.PublishStatus(monitor.ConnectionStateDisconnected, tr.Name(), tr.StatusTarget(), err)

			return fmt.Errorf("initialize tcp session: %w", err)
		}
		if err := sess.ConfigUART1(ctx, uint32(conn.SerialBaud), ubx.ProtoUBX|ubx.ProtoRTCM3, ubx.ProtoUBX); err != nil {
			return fmt.Errorf("configure receiver port: %w", err)
		}
		mon.PublishStatus(monitor.ConnectionStateConnected, tr.Name(), tr.StatusTarget(), nil)
	default:
		return fmt.Errorf("unknown connector: %s", conn.Connector)
	}

	return nil
}

func applyReceiverConfig(ctx context.Context, sess *session.Session, logger *slog.Logger, rc config.ReceiverConfig) error {
	if err := sess.ConfigRate(ctx, uint16(rc.MeasRateMS), uint16(rc.NavRate)); err != nil {
		return fmt.Errorf("configure measurement rate: %w", err)
	}

	model, err := ubx.ModelFromString(rc.DynamicModel)
	if err != nil {
		return fmt.Errorf("parse dynamic model: %w", err)
	}
	if err := sess.SetDynamicModel(ctx, model); err != nil {
		return fmt.Errorf("set dynamic model: %w", err)
	}

	fixMode, err := ubx.FixModeFromString(rc.FixMode)
	if err != nil {
		return fmt.Errorf("parse fix mode: %w", err)
	}
	if err := sess.SetFixMode(ctx, fixMode); err != nil {
		return fmt.Errorf("set fix mode: %w", err)
	}

	if rc.EnableSBAS {
		// Not every receiver has SBAS; a rejection is not fatal.
		if err := sess.EnableSBAS(ctx, true, 3, 3); err != nil {
			logger.Warn("enable sbas", "error", err)
		}
	}

	return nil
}

func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger, writer *persistence.WriterQueue, repo *persistence.FixRepo) {
	connSub := b.Subscribe(monitor.TopicConnStatus)
	fixSub := b.Subscribe(monitor.TopicFix)
	svinSub := b.Subscribe(monitor.TopicSurveyIn)
	frameInSub := b.Subscribe(monitor.TopicFrameIn)
	frameOutSub := b.Subscribe(monitor.TopicFrameOut)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.Unsubscribe(connSub, monitor.TopicConnStatus)
				b.Unsubscribe(fixSub, monitor.TopicFix)
				b.Unsubscribe(svinSub, monitor.TopicSurveyIn)
				b.Unsubscribe(frameInSub, monitor.TopicFrameIn)
				b.Unsubscribe(frameOutSub, monitor.TopicFrameOut)

				return
			case raw := <-connSub:
				if status, ok := raw.(monitor.ConnectionStatus); ok {
					logger.Info("conn", "state", status.State, "transport", status.TransportName, "target", status.Target, "error", status.Err)
				}
			case raw := <-fixSub:
				fix, ok := raw.(monitor.FixUpdate)
				if !ok {
					continue
				}
				logger.Info("fix", "lat", fix.Lat, "lon", fix.Lon, "type", fix.FixType, "ok", fix.FixOK, "sv", fix.NumSV, "hacc_mm", fix.HAccMM)
				if writer != nil && repo != nil && fix.FixOK {
					point := persistence.TrackPoint{
						Time:     fix.Time,
						Lat:      fix.Lat,
						Lon:      fix.Lon,
						HeightMM: fix.HeightMM,
						FixType:  fix.FixType,
						FixOK:    fix.FixOK,
						NumSV:    fix.NumSV,
						HAccMM:   fix.HAccMM,
						VAccMM:   fix.VAccMM,
					}
					writer.Enqueue("insert fix", func(ctx context.Context) error {
						return repo.Insert(ctx, point)
					})
				}
			case raw := <-svinSub:
				if svin, ok := raw.(monitor.SurveyInStatus); ok {
					logger.Info("survey-in", "obs", svin.Observations, "dur_s", svin.ObservationTime, "mean_acc_mm", svin.MeanAccMM, "valid", svin.Valid, "active", svin.Active)
				}
			case raw := <-frameInSub:
				if frame, ok := raw.(monitor.FrameEvent); ok {
					logger.Debug("frame-in", "key", frame.Key, "len", frame.Len)
				}
			case raw := <-frameOutSub:
				if frame, ok := raw.(monitor.FrameEvent); ok {
					logger.Debug("frame-out", "key", frame.Key, "len", frame.Len)
				}
			}
		}
	}()
}
