// Package config holds the benchmark configuration and its YAML loader.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/shufbench/shuffle"
)

// ErrInvalidConfig wraps every validation and load failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ModeAggregate = "aggregate"
	ModePerRun    = "per-run"
)

// MaxExponent is the largest exponent whose power of two fits an int.
const MaxExponent = 62

// Config describes one benchmark invocation. It is not modified after
// Validate succeeds.
type Config struct {
	Mode     string `yaml:"mode" json:"mode" validate:"oneof=aggregate per-run"`
	Function string `yaml:"function" json:"function" validate:"required,operation"`
	PRNG     string `yaml:"prng" json:"prng" validate:"oneof=pcg chacha8"`
	Seed     uint64 `yaml:"seed" json:"seed"`

	BucketCount       int `yaml:"bucket_count" json:"bucket_count" validate:"gte=2"`
	BaseCaseThreshold int `yaml:"base_case_threshold" json:"base_case_threshold" validate:"gte=1"`

	MinExponent int `yaml:"min_exponent" json:"min_exponent" validate:"gte=0,lte=62"`
	MaxExponent int `yaml:"max_exponent" json:"max_exponent" validate:"gte=0,lte=62,gtefield=MinExponent"`

	DefaultRunCount  int           `yaml:"default_run_count" json:"default_run_count" validate:"gte=1"`
	MinDuration      time.Duration `yaml:"min_duration" json:"min_duration" validate:"gte=0"`
	MaxScaleAttempts int           `yaml:"max_scale_attempts" json:"max_scale_attempts" validate:"gte=1,lte=18"`
	Runs             int           `yaml:"runs" json:"runs" validate:"gte=1"`

	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required"`
	Metadata  bool   `yaml:"metadata" json:"metadata"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() Config {
	return Config{
		Mode:              ModeAggregate,
		Function:          shuffle.ScatterName,
		PRNG:              "pcg",
		BucketCount:       4,
		BaseCaseThreshold: 256,
		MinExponent:       0,
		MaxExponent:       29,
		DefaultRunCount:   10,
		MinDuration:       100 * time.Millisecond,
		MaxScaleAttempts:  12,
		Runs:              10,
		OutputDir:         "../benchmarks/go",
		Metadata:          true,
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("operation", validateOperation); err != nil {
		panic(fmt.Sprintf("register operation validator: %v", err))
	}

	validate.RegisterStructValidation(validateScatter, Config{})
}

// validateScatter requires the fallback threshold to cover the bucket count
// when the scatter shuffle is selected. Other operations ignore both values.
func validateScatter(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)

	if c.Function == shuffle.ScatterName && c.BaseCaseThreshold < c.BucketCount {
		sl.ReportError(c.BaseCaseThreshold, "BaseCaseThreshold", "BaseCaseThreshold",
			"scatterthreshold", "BucketCount")
	}
}

func validateOperation(fl validator.FieldLevel) bool {
	return shuffle.Known(fl.Field().String())
}

// Validate checks the invariants of c.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "operation":
		return fmt.Sprintf("%s: unknown operation %q (known: %s)",
			fe.Field(), fe.Value(), strings.Join(shuffle.Names(), ", "))
	case "gtefield":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "scatterthreshold":
		return fmt.Sprintf("%s must be >= %s for %s",
			fe.Field(), fe.Param(), shuffle.ScatterName)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q",
			fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)",
			fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default values. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}

	return cfg, nil
}
