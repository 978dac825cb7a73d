package domain

// CommunityBoard is the public tag listing together with the caller's votes.
type CommunityBoard struct {
	Groups    []TagGroup     `json:"groups"`
	UserVotes map[string]int `json:"user_votes"` // tag id -> vote type
}

const (
	TopTagsPerVerse = 5
	BoardTagLimit   = 100
	SearchLimit     = 200
)

// GroupTags groups tags by text preserving the order of first appearance.
func GroupTags(tags []Tag) []TagGroup {
	groups := []TagGroup{}
	index := make(map[string]int)
	for _, t := range tags {
		i, ok := index[t.TagText]
		if !ok {
			i = len(groups)
			index[t.TagText] = i
			groups = append(groups, TagGroup{TagText: t.TagText})
		}
		groups[i].Tags = append(groups[i].Tags, t)
		groups[i].TotalVotes += t.Votes
	}
	return groups
}
