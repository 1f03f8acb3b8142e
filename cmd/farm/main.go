package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"furitingoasis/greenhouse/config"
	"furitingoasis/greenhouse/controller"
	"furitingoasis/greenhouse/encoder"
	"furitingoasis/greenhouse/farm"
	"furitingoasis/greenhouse/hardware"
	"furitingoasis/greenhouse/mqtt"
	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
	"furitingoasis/greenhouse/site"
	"furitingoasis/greenhouse/store"
	"furitingoasis/greenhouse/telemetry"
	"furitingoasis/greenhouse/website"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.json", "JSON config file")
	hashPassword := flag.Bool("hash-password", false, "read a password on stdin, print its bcrypt hash and exit")
	flag.Parse()

	if *hashPassword {
		if err := printHash(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	level := new(slog.LevelVar)
	level.Set(config.DefaultLogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrMissingFile) {
		slog.Warn("config file not found, using defaults", "path", *configPath)
	} else if err != nil {
		fatal("loading config failed", err)
	}
	level.Set(cfg.Level())

	boot := uuid.NewString()
	slog.Info("starting greenhouse controller", "version", version, "boot", boot)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := raspi.NewAdaptor()
	rig := newRig(r, cfg)
	defer rig.close()

	now := controller.Monotonic()
	if rig.knob != nil {
		dev, err := encoder.Open(cfg.Encoder, rig.knob, now)
		if err != nil {
			slog.Warn("encoder unavailable, menu disabled", "chip", cfg.Encoder.Chip, "error", err)
			rig.knob = nil
		} else {
			defer dev.Close()
		}
	}

	c := controller.New(controller.Hardware{
		Outputs:    rig.outputs,
		Lamps:      rig.lamps,
		Inside:     rig.inside,
		Outside:    rig.outside,
		Soil:       rig.soil,
		SoilSteps:  cfg.Analog.Steps,
		Light:      rig.light,
		LightSteps: cfg.Analog.Steps,
		Water:      rig.water,
		Knob:       rig.knob,
	}, now)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fatal("opening database failed", err)
	}
	defer db.Close()

	// The writers outlive the signal so the final relay-off snapshot is
	// recorded; main waits for them before the deferred db.Close.
	historyCtx, stopHistory := context.WithCancel(context.Background())
	var writers sync.WaitGroup
	recorder := store.NewRecorder(db, 0)
	tracker := store.NewTracker(time.Now)
	c.Subscribe(recorder)
	c.Subscribe(tracker)
	writers.Add(2)
	go func() {
		defer writers.Done()
		recorder.Run(historyCtx)
	}()
	go func() {
		defer writers.Done()
		tracker.Run(historyCtx, db, time.Minute)
	}()
	defer func() {
		stopHistory()
		writers.Wait()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Subscribe(telemetry.NewMetrics(reg))

	if cfg.Influx.Enabled() {
		client, writer, err := telemetry.DialInflux(ctx, cfg.Influx)
		if err != nil {
			fatal("connecting to influx failed", err)
		}
		defer client.Close()
		sender := telemetry.NewSender(cfg.Influx, writer, boot)
		c.Subscribe(sender)
		go sender.Run(ctx)
	}

	if cfg.MQTT.Enabled() {
		mqttCfg := cfg.MQTT
		mqttCfg.ClientID = fmt.Sprintf("%s-%s", mqttCfg.ClientID, boot[:8])
		client, err := mqtt.Connect(ctx, mqttCfg)
		if err != nil {
			fatal("connecting to mqtt failed", err)
		}
		defer mqtt.Close(client)
		bridge := mqtt.NewBridge(client, mqttCfg, c, tracker)
		if err := bridge.Subscribe(); err != nil {
			fatal("subscribing to mqtt topics failed", err)
		}
		bridge.Alert("controller started, boot " + boot)
		go bridge.Run(ctx)
	}

	hub := site.NewHub()
	c.Subscribe(hub)
	api := &site.Server{Core: c, History: db, Hub: hub, Gatherer: reg}
	apiServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go serve("api", apiServer)
	defer shutdown(apiServer)

	if err := website.CreateTables(db.DB()); err != nil {
		fatal("creating web tables failed", err)
	}
	if cfg.Admin.Email != "" {
		created, err := (&website.UserModel{DB: db.DB()}).SeedAdmin(cfg.Admin.Email, cfg.Admin.PasswordHash)
		if err != nil {
			slog.Error("seeding admin user failed", "error", err)
		} else if created {
			slog.Info("admin user created", "email", cfg.Admin.Email)
		}
	}
	app, err := website.New(website.Options{Logger: logger, Core: c, DB: db.DB()})
	if err != nil {
		fatal("building web app failed", err)
	}
	webServer := &http.Server{
		Addr:         cfg.WebAddr,
		Handler:      app.Routes(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go serve("web", webServer)
	defer shutdown(webServer)

	work := func() {
		c.Start()
		gobot.Every(cfg.Poll(), c.Poll)
	}

	farmBot := gobot.NewRobot("FarmController",
		[]gobot.Connection{r},
		rig.devices,
		work,
	)
	farmBot.AutoRun = false
	if err := farmBot.Start(); err != nil {
		fatal("starting robot failed", err)
	}

	<-ctx.Done()
	slog.Info("shutting down")
	c.Stop()
	if err := farmBot.Stop(); err != nil {
		slog.Error("stopping robot failed", "error", err)
	}
}

// rig is the hardware built from the config.
type rig struct {
	devices []gobot.Device
	outputs relays.Outputs
	lamps   farm.Indicators
	inside  sensors.ClimateReader
	outside sensors.ClimateReader
	soil    [3]sensors.Analog
	light   sensors.Analog
	water   sensors.PercentReader
	knob    *encoder.State
	gpio    bool
}

func newRig(r *raspi.Adaptor, cfg config.Config) *rig {
	var g rig

	relay := func(rc config.Relay) *hardware.Relay {
		d := gpio.NewRelayDriver(r, rc.Pin)
		g.devices = append(g.devices, d)
		return hardware.NewRelay(d, rc.ActiveLow)
	}
	g.outputs = relays.Outputs{
		Run:       relay(cfg.Relays.Run),
		Direction: relay(cfg.Relays.Direction),
		Pump:      relay(cfg.Relays.Pump),
		Light:     relay(cfg.Relays.Light),
		Heater:    relay(cfg.Relays.Heater),
	}

	sht := i2c.NewSHT2xDriver(r, i2c.WithBus(cfg.I2C.Bus))
	g.devices = append(g.devices, sht)
	g.inside = hardware.NewSHT2x(sht, cfg.I2C.HumidityOffset)

	switch {
	case cfg.OneWire.Enabled:
		address := cfg.OneWire.Address
		if address == "" {
			var err error
			if address, err = hardware.FirstOneWire(); err != nil {
				slog.Warn("outside probe unavailable", "error", err)
			}
		}
		if address != "" {
			g.outside = hardware.NewOneWire(address, float64(cfg.OneWire.Offset))
		}
	case cfg.I2C.OutsideBus > 0:
		out := i2c.NewSHT2xDriver(r, i2c.WithBus(cfg.I2C.OutsideBus))
		g.devices = append(g.devices, out)
		g.outside = hardware.NewSHT2x(out, cfg.I2C.HumidityOffset)
	}

	adc := i2c.NewADS1115Driver(r, i2c.WithBus(cfg.I2C.Bus), i2c.WithAddress(cfg.I2C.ADCAddress))
	g.devices = append(g.devices, adc)
	for i, ch := range cfg.Analog.Soil {
		g.soil[i] = hardware.NewChannel(adc, ch)
	}
	g.light = hardware.NewChannel(adc, cfg.Analog.Light)

	g.water = hardware.NewWaterBoard(
		&lazyI2C{adaptor: r, address: cfg.I2C.WaterLow, bus: cfg.I2C.Bus},
		&lazyI2C{adaptor: r, address: cfg.I2C.WaterHigh, bus: cfg.I2C.Bus},
	)

	if err := hardware.OpenGPIO(); err != nil {
		slog.Warn("status lamps unavailable", "error", err)
	} else {
		g.gpio = true
		g.lamps = farm.Indicators{
			Red:   hardware.NewLamp("red", cfg.Lamps.Red),
			Green: hardware.NewLamp("green", cfg.Lamps.Green),
			Blue:  hardware.NewLamp("blue", cfg.Lamps.Blue),
		}
	}

	g.knob = &encoder.State{}
	return &g
}

func (g *rig) close() {
	if g.gpio {
		if err := hardware.CloseGPIO(); err != nil {
			slog.Error("closing gpio failed", "error", err)
		}
	}
}

// lazyI2C opens its connection on first read, after the robot has connected
// the adaptor.
type lazyI2C struct {
	adaptor *raspi.Adaptor
	address int
	bus     int
	conn    i2c.Connection
}

func (l *lazyI2C) Read(p []byte) (int, error) {
	if l.conn == nil {
		conn, err := l.adaptor.GetI2cConnection(l.address, l.bus)
		if err != nil {
			return 0, fmt.Errorf("i2c 0x%02x on bus %d: %w", l.address, l.bus, err)
		}
		l.conn = conn
	}
	return l.conn.Read(p)
}

func serve(name string, srv *http.Server) {
	slog.Info("starting server", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "server", name, "error", err)
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "addr", srv.Addr, "error", err)
	}
}

func printHash() error {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := website.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
