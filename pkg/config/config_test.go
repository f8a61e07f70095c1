package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/tapestream/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file", func() {
			writeConfig(`version = 0

[stream]
url = "http://localhost:8090/stream/objects"
credentials = "omit"

[archive]
driver = "sqlite"
sqlite_path = "/tmp/sessions.db"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Stream.URL).To(Equal("http://localhost:8090/stream/objects"))
			Expect(cfg.Stream.Credentials).To(Equal("omit"))
			Expect(cfg.Archive.Driver).To(Equal("sqlite"))
			Expect(cfg.Archive.SQLitePath).To(Equal("/tmp/sessions.db"))

			// Unset fields get defaults
			Expect(cfg.Stream.Method).To(Equal("POST"))
			Expect(cfg.Events.Provider).To(Equal("none"))
			Expect(cfg.Fixture.Listen).To(Equal(":8090"))
		})

		It("loads list fields", func() {
			writeConfig(`[events]
provider = "kafka"
brokers = ["a:9092", "b:9092"]
topic = "sessions"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.Provider).To(Equal("kafka"))
			Expect(cfg.Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
			Expect(cfg.Events.Topic).To(Equal("sessions"))
		})

		It("returns error for malformed TOML", func() {
			writeConfig("not valid toml [[[")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 999\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version 999"))
		})

		It("returns error for an unknown archive driver", func() {
			writeConfig("[archive]\ndriver = \"mongo\"\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("invalid value for archive.driver")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Stream.URL = "http://example.com/stream"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("stream.url", "http://localhost:8090/stream/done")).To(Succeed())

			val, err := c.GetConfigValue("stream.url")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("http://localhost:8090/stream/done"))
		})

		It("upper-cases the stream method", func() {
			Expect(c.SetConfigValue("stream.method", "get")).To(Succeed())

			val, err := c.GetConfigValue("stream.method")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("GET"))
		})

		It("sets an int config key", func() {
			Expect(c.SetConfigValue("fixture.chunk_size", "4")).To(Succeed())

			val, err := c.GetConfigValue("fixture.chunk_size")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("4"))
		})

		It("splits comma separated brokers", func() {
			Expect(c.SetConfigValue("events.brokers", "a:9092, b:9092,")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))

			val, err := c.GetConfigValue("events.brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("a:9092,b:9092"))
		})

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("nonexistent", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("returns error for invalid int value", func() {
			err := c.SetConfigValue("stream.read_size", "big")
			Expect(err).To(MatchError(ContainSubstring("invalid value for stream.read_size")))
		})

		It("rejects a zero read size", func() {
			err := c.SetConfigValue("stream.read_size", "0")
			Expect(err).To(MatchError(ContainSubstring("must be positive")))
		})

		It("rejects unknown enumerated values", func() {
			Expect(c.SetConfigValue("stream.credentials", "always")).To(MatchError(ContainSubstring("include, same-origin, omit")))
			Expect(c.SetConfigValue("events.provider", "nats")).To(HaveOccurred())
			Expect(c.SetConfigValue("stream.method", "DELETE")).To(HaveOccurred())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("archive.driver", "sqlite")).To(Succeed())
			Expect(c.SetConfigValue("archive.sqlite_path", "/tmp/a.db")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Archive.Driver).To(Equal("sqlite"))
			Expect(cfg.Archive.SQLitePath).To(Equal("/tmp/a.db"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("events.topic")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("tapestream.sessions"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("archive.postgres_dsn")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("proxy.upstream")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Dir", func() {
		It("returns the resolved directory", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			abs, err := filepath.Abs(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Dir()).To(Equal(abs))
			Expect(c.GetTarget()).To(Equal(filepath.Join(abs, "config.toml")))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns all keys in section order", func() {
		Expect(config.ValidConfigKeys()).To(Equal([]string{
			"stream.url",
			"stream.method",
			"stream.credentials",
			"stream.read_size",
			"archive.driver",
			"archive.sqlite_path",
			"archive.postgres_dsn",
			"events.provider",
			"events.brokers",
			"events.topic",
			"fixture.listen",
			"fixture.chunk_size",
			"fixture.delay_ms",
		}))
	})

	It("agrees with IsValidConfigKey", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("url")).To(BeFalse())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(*cfg).To(Equal(config.Config{}))
	})

	It("rejects an unknown events provider", func() {
		_, err := config.ParseConfigTOML([]byte("[events]\nprovider = \"nats\"\n"))
		Expect(err).To(MatchError(ContainSubstring("events.provider")))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[fixture]
listen = ":9999"
chunk_size = 3
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("fixture.listen")).To(Equal(":9999"))
		Expect(v.GetInt("fixture.chunk_size")).To(Equal(3))
		Expect(v.GetInt("fixture.delay_ms")).To(Equal(config.NewDefaultConfig().Fixture.DelayMs))
	})

	It("env vars take precedence over config file values", func() {
		data := `[archive]
driver = "sqlite"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("TAPESTREAM_ARCHIVE_DRIVER", "postgres")
		defer os.Unsetenv("TAPESTREAM_ARCHIVE_DRIVER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("archive.driver")).To(Equal("postgres"))
	})

	It("splits brokers given through the environment", func() {
		os.Setenv("TAPESTREAM_EVENTS_BROKERS", "a:9092,b:9092")
		defer os.Unsetenv("TAPESTREAM_EVENTS_BROKERS")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
	})

	It("rejects invalid values from the environment", func() {
		os.Setenv("TAPESTREAM_STREAM_CREDENTIALS", "sometimes")
		defer os.Unsetenv("TAPESTREAM_STREAM_CREDENTIALS")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)

		// Simulate flag being set by user
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})
		Expect(v.GetString("fixture.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[fixture]
chunk_size = 5
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var chunk int
		config.AddIntFlag(cmd, config.Flags, config.FlagChunkSize, &chunk)

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagChunkSize})
		Expect(v.GetInt("fixture.chunk_size")).To(Equal(5))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("archive.driver")).To(Equal("memory"))
	})

	It("pulls name, shorthand, default, and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var method string
		var brokers []string
		config.AddStringFlag(cmd, config.Flags, config.FlagMethod, &method)
		config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &brokers)

		f := cmd.Flags().Lookup("method")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("X"))
		Expect(f.DefValue).To(Equal("POST"))
		Expect(f.Usage).To(Equal(config.Flags[config.FlagMethod].Description))
		Expect(method).To(Equal("POST"))

		Expect(cmd.Flags().Lookup("kafka-brokers")).NotTo(BeNil())
		Expect(brokers).To(BeEmpty())
	})
})
