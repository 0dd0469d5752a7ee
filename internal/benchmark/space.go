package benchmark

// minExpOverThreads is how far the smallest array exponent of a stratum sits above
// log2(threads). It keeps every thread busy with at least 2^5 cells.
const minExpOverThreads = 5

// Stratum groups the configurations that share a thread count.
type Stratum struct {
	Threads        int
	Configurations []Configuration
}

// Strata enumerates the sweep space grouped by thread count, one stratum per power of
// two up to maxThreads. A stratum whose minimum array exponent exceeds maxExp is empty.
func Strata(maxExp, maxThreads int) []Stratum {
	maxThreadExp := log2(maxThreads)
	strata := make([]Stratum, 0, maxThreadExp+1)
	for threadExp := 0; threadExp <= maxThreadExp; threadExp++ {
		threads := 1 << threadExp
		s := Stratum{Threads: threads}
		for arrayExp := threadExp + minExpOverThreads; arrayExp <= maxExp; arrayExp++ {
			for _, impl := range Implementations {
				if (threads == 1) != (impl == Sequential) {
					continue
				}
				s.Configurations = append(s.Configurations, Configuration{
					Threads:        threads,
					ArrayExp:       arrayExp,
					Implementation: impl,
				})
			}
		}
		strata = append(strata, s)
	}
	return strata
}

// Configurations returns the flattened sweep space in execution order.
func Configurations(maxExp, maxThreads int) []Configuration {
	var configs []Configuration
	for _, s := range Strata(maxExp, maxThreads) {
		configs = append(configs, s.Configurations...)
	}
	return configs
}
