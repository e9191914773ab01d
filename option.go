package memkit

const (
	// DefaultCapacity is a general starting backing-buffer size. freelist,
	// arena and seq do not read it: they use freelist.DefaultCapacity,
	// arena.DefaultRegionCapacityPages and seq.DefaultCapacity instead.
	DefaultCapacity = 4096

	// DefaultGrowthFactor is seq's default capacity multiplier on grow.
	DefaultGrowthFactor = 2.0

	// DefaultLoadFactor is hashmap's default occupied/capacity ratio
	// above which a rehash is triggered.
	DefaultLoadFactor = 0.75

	// DefaultHashmapGrowthFactor is hashmap's default capacity
	// multiplier on rehash.
	DefaultHashmapGrowthFactor = 2.0
)
