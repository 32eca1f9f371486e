package gallery

import "fmt"

type PartitionPolicy string

const (
	// PolicyMerge queries every partition of a tier concurrently and merges the results.
	PolicyMerge PartitionPolicy = "merge"
	// PolicyRoundRobin queries a single partition per attempt, rotating through them.
	PolicyRoundRobin PartitionPolicy = "roundrobin"
)

func ParsePartitionPolicy(s string) (PartitionPolicy, error) {
	switch PartitionPolicy(s) {
	case PolicyMerge, "":
		return PolicyMerge, nil
	case PolicyRoundRobin:
		return PolicyRoundRobin, nil
	}
	return "", fmt.Errorf("invalid partition policy: %s", s)
}

// Tier is one position in the fallback priority order.
// A tier with several feeds is a partitioned provider.
type Tier struct {
	Name   string
	Feeds  []Feed
	Policy PartitionPolicy
}

func NewTier(name string, policy PartitionPolicy, feeds ...Feed) Tier {
	if policy == "" {
		policy = PolicyMerge
	}
	return Tier{
		Name:   name,
		Feeds:  feeds,
		Policy: policy,
	}
}
