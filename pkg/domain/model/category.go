package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// Category is a named issue bucket with an immutable keyword set.
// Categories are static configuration loaded at startup; the declaration
// order in the config file defines the tie-break priority.
type Category struct {
	ID       types.CategoryID
	Name     string
	Keywords []string
	Priority int // lower value wins ties, assigned from declaration order
}

// Validate checks the category configuration
func (c *Category) Validate() error {
	if err := c.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid category ID")
	}
	if c.Name == "" {
		return goerr.New("category name is required", goerr.V("id", c.ID))
	}
	if len(c.Keywords) == 0 {
		return goerr.New("category requires at least one keyword", goerr.V("id", c.ID))
	}
	for _, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return goerr.New("category keyword must not be blank", goerr.V("id", c.ID))
		}
	}
	return nil
}

// MatchCount returns how many of the category's keywords appear in the
// given lower-cased text.
func (c *Category) MatchCount(loweredText string) int {
	count := 0
	for _, kw := range c.Keywords {
		if strings.Contains(loweredText, strings.ToLower(kw)) {
			count++
		}
	}
	return count
}

// DefaultCategories returns the built-in issue buckets. The keyword table
// mirrors the hardware-support taxonomy the system was seeded with.
func DefaultCategories() []Category {
	cats := []Category{
		{ID: "processor_errors", Name: "Processor Errors", Keywords: []string{"processor", "cpu", "thermal"}},
		{ID: "network_issues", Name: "Network Issues", Keywords: []string{"network", "connectivity", "nic"}},
		{ID: "raid_controller_issues", Name: "RAID Controller Issues", Keywords: []string{"raid", "controller"}},
		{ID: "hard_drive_failures", Name: "Hard Drive Failures", Keywords: []string{"hard drive", "hdd", "disk"}},
		{ID: "bios_firmware_issues", Name: "BIOS & Firmware Issues", Keywords: []string{"bios", "firmware"}},
		{ID: "boot_failures", Name: "Boot Failures", Keywords: []string{"boot", "post"}},
		{ID: "memory_issues", Name: "Memory Issues", Keywords: []string{"memory", "dimm", "ram"}},
		{ID: "power_supply_issues", Name: "Power Supply Issues", Keywords: []string{"power", "psu"}},
		{ID: "thermal_issues", Name: "Thermal Issues", Keywords: []string{"overheating", "temperature", "fan"}},
	}
	for i := range cats {
		cats[i].Priority = i
	}
	return cats
}
