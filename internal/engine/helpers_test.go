package engine

import "verdict/internal/plugin"

func overridesWithBatch(n int) plugin.Overrides {
	return plugin.Overrides{BatchSize: n}
}
