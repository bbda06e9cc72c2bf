package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sheetRecon/internal/logger"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DefaultProfile string                   `toml:"default_profile"`
	LedgerProfiles map[string]LedgerProfile `toml:"ledger_profiles"`
	SheetColumns   SheetColumns             `toml:"sheet_columns"`
	Style          StyleTemplate            `toml:"style"`
	Log            LogConfig                `toml:"log"`
	UI             UIConfig                 `toml:"ui"`
}

// LedgerProfile describes one ledger variant. The observed variants differ only
// in Encoding and QuantityColumn.
type LedgerProfile struct {
	Name              string `toml:"-"`
	Encoding          string `toml:"encoding"`
	Delimiter         string `toml:"delimiter"`
	DestinationColumn string `toml:"destination_column"`
	ItemCodeColumn    string `toml:"item_code_column"`
	QuantityColumn    string `toml:"quantity_column"`
}

// SheetColumns names the columns read from row 3 of every destination sheet.
type SheetColumns struct {
	ItemCode string `toml:"item_code"`
	Quantity string `toml:"quantity"`
}

// StyleTemplate parameterizes the fixed destination-sheet layout.
type StyleTemplate struct {
	FontFamily      string  `toml:"font_family"`
	FontSize        float64 `toml:"font_size"`
	TitleFontSize   float64 `toml:"title_font_size"`
	PrimaryFill     string  `toml:"primary_fill"`
	SecondaryFill   string  `toml:"secondary_fill"`
	ColumnNameFill  string  `toml:"column_name_fill"`
	BorderColor     string  `toml:"border_color"`
	DataRowHeight   float64 `toml:"data_row_height"`
	FilterColumn    string  `toml:"filter_column"`
	PreservedColumn int     `toml:"preserved_column"`
}

type LogConfig struct {
	Directory string `toml:"directory"`
	Level     string `toml:"level"`
}

type UIConfig struct {
	ColumnsPerRow int `toml:"columns_per_row"`
	RowsPerPage   int `toml:"rows_per_page"`
}

const (
	DefaultDestinationColumn = "届け先名"
	DefaultItemCodeColumn    = "商品コード"
	DefaultQuantityColumn    = "出荷実績検品数"
	DefaultSheetQuantity     = "出荷数"
	// second observed ledger variant
	SJISQuantityColumn = "出荷実績数"
)

// DefaultConfig returns the configuration used when no file exists yet. It
// carries both observed ledger variants.
func DefaultConfig() *Config {
	return &Config{
		DefaultProfile: "utf8",
		LedgerProfiles: map[string]LedgerProfile{
			"utf8": {
				Encoding:          "utf-8",
				Delimiter:         ",",
				DestinationColumn: DefaultDestinationColumn,
				ItemCodeColumn:    DefaultItemCodeColumn,
				QuantityColumn:    DefaultQuantityColumn,
			},
			"sjis": {
				Encoding:          "shift_jis",
				Delimiter:         ",",
				DestinationColumn: DefaultDestinationColumn,
				ItemCodeColumn:    DefaultItemCodeColumn,
				QuantityColumn:    SJISQuantityColumn,
			},
		},
		SheetColumns: SheetColumns{
			ItemCode: DefaultItemCodeColumn,
			Quantity: DefaultSheetQuantity,
		},
		Style: DefaultStyleTemplate(),
		Log: LogConfig{
			Directory: "logs",
			Level:     "info",
		},
		UI: UIConfig{
			ColumnsPerRow: 4,
			RowsPerPage:   3,
		},
	}
}

// DefaultStyleTemplate returns the house layout for destination sheets.
func DefaultStyleTemplate() StyleTemplate {
	return StyleTemplate{
		FontFamily:      "MS PGothic",
		FontSize:        11,
		TitleFontSize:   16,
		PrimaryFill:     "FFE598",
		SecondaryFill:   "FFF2CB",
		ColumnNameFill:  "F2F2F2",
		BorderColor:     "000000",
		DataRowHeight:   14.3,
		FilterColumn:    "C",
		PreservedColumn: 4,
	}
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		defaultConfig := DefaultConfig()
		if err := SaveConfig(configPath, defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig.withNames(), nil
	}

	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	logger.Info("Loaded configuration", "path", configPath, "profiles", len(config.LedgerProfiles))
	return &config, nil
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if len(c.LedgerProfiles) == 0 {
		c.LedgerProfiles = def.LedgerProfiles
	}
	for name, p := range c.LedgerProfiles {
		c.LedgerProfiles[name] = p.WithDefaults()
	}
	if c.DefaultProfile == "" {
		c.DefaultProfile = def.DefaultProfile
	}

	c.SheetColumns = c.SheetColumns.WithDefaults()

	c.Style = c.Style.WithDefaults()

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.UI.ColumnsPerRow == 0 {
		c.UI.ColumnsPerRow = def.UI.ColumnsPerRow
	}
	if c.UI.RowsPerPage == 0 {
		c.UI.RowsPerPage = def.UI.RowsPerPage
	}

	c.withNames()
}

func (c *Config) withNames() *Config {
	for name, p := range c.LedgerProfiles {
		p.Name = name
		c.LedgerProfiles[name] = p
	}
	return c
}

// Validate checks that every profile names its three ledger columns and a
// single-character delimiter.
func (c *Config) Validate() error {
	for name, p := range c.LedgerProfiles {
		if p.DestinationColumn == "" || p.ItemCodeColumn == "" || p.QuantityColumn == "" {
			return fmt.Errorf("ledger profile %q must set destination_column, item_code_column and quantity_column", name)
		}
		if utf8.RuneCountInString(p.Delimiter) != 1 {
			return fmt.Errorf("ledger profile %q: delimiter must be a single character, got %q", name, p.Delimiter)
		}
	}
	if _, ok := c.LedgerProfiles[c.DefaultProfile]; !ok {
		return fmt.Errorf("default_profile %q is not a configured ledger profile", c.DefaultProfile)
	}
	return nil
}

// Profile returns the named ledger profile, or the default one when name is empty.
func (c *Config) Profile(name string) (LedgerProfile, error) {
	if strings.TrimSpace(name) == "" {
		name = c.DefaultProfile
	}
	p, ok := c.LedgerProfiles[name]
	if !ok {
		return LedgerProfile{}, fmt.Errorf("unknown ledger profile %q (available: %s)", name, strings.Join(c.ProfileNames(), ", "))
	}
	p.Name = name
	return p.WithDefaults(), nil
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.LedgerProfiles))
	for name := range c.LedgerProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetProfile adds or replaces a ledger profile.
func (c *Config) SetProfile(name string, p LedgerProfile) {
	if c.LedgerProfiles == nil {
		c.LedgerProfiles = make(map[string]LedgerProfile)
	}
	p.Name = name
	c.LedgerProfiles[name] = p.WithDefaults()
}

func (p LedgerProfile) WithDefaults() LedgerProfile {
	if p.Encoding == "" {
		p.Encoding = "utf-8"
	}
	if p.Delimiter == "" {
		p.Delimiter = ","
	}
	return p
}

func (s SheetColumns) WithDefaults() SheetColumns {
	if s.ItemCode == "" {
		s.ItemCode = DefaultItemCodeColumn
	}
	if s.Quantity == "" {
		s.Quantity = DefaultSheetQuantity
	}
	return s
}

// Comma returns the delimiter as a rune.
func (p LedgerProfile) Comma() rune {
	r, _ := utf8.DecodeRuneInString(p.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

func (s StyleTemplate) WithDefaults() StyleTemplate {
	def := DefaultStyleTemplate()
	if s.FontFamily == "" {
		s.FontFamily = def.FontFamily
	}
	if s.FontSize == 0 {
		s.FontSize = def.FontSize
	}
	if s.TitleFontSize == 0 {
		s.TitleFontSize = def.TitleFontSize
	}
	if s.PrimaryFill == "" {
		s.PrimaryFill = def.PrimaryFill
	}
	if s.SecondaryFill == "" {
		s.SecondaryFill = def.SecondaryFill
	}
	if s.ColumnNameFill == "" {
		s.ColumnNameFill = def.ColumnNameFill
	}
	if s.BorderColor == "" {
		s.BorderColor = def.BorderColor
	}
	if s.DataRowHeight == 0 {
		s.DataRowHeight = def.DataRowHeight
	}
	if s.FilterColumn == "" {
		s.FilterColumn = def.FilterColumn
	}
	if s.PreservedColumn == 0 {
		s.PreservedColumn = def.PreservedColumn
	}
	return s
}
