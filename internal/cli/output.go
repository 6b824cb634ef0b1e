package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"cardvault-api/internal/collection"
)

// SlotRow is one slot as printed by cardctl.
type SlotRow struct {
	Key         string `yaml:"key"`
	SettingKey  string `yaml:"settingKey"`
	DisplayName string `yaml:"displayName"`
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description,omitempty"`
}

func rowsFrom(settings []collection.SlotSetting) []SlotRow {
	rows := make([]SlotRow, len(settings))
	for i, s := range settings {
		rows[i] = SlotRow{
			Key:         s.Key,
			SettingKey:  s.SettingKey,
			DisplayName: s.Setting.DisplayName,
			Enabled:     s.Setting.IsEnabled,
			Description: s.Setting.Description,
		}
	}
	return rows
}

func writeRows(w io.Writer, format string, rows []SlotRow) error {
	if format == "table" {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSETTING\tNAME\tENABLED")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Key, r.SettingKey, r.DisplayName, r.Enabled)
		}
		return tw.Flush()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return enc.Close()
}
