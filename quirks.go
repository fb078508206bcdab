package convoke

import "regexp"

// reasoningFamilyPattern matches upstream model ids of the reasoning
// model families. These models reject an explicit temperature and use
// an alternate token-limit field name on the wire.
var reasoningFamilyPattern = regexp.MustCompile(`^(o1|o3|o4|gpt-5)([.-]|$)`)

func reasoningFamily(upstreamID string) bool {
	return reasoningFamilyPattern.MatchString(upstreamID)
}
