package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maheshrc27/cascade-scheduler/internal/models"
)

// TopicWindow is the largest gap between consecutive posts of one topic.
const TopicWindow = 30 * time.Minute

// GroupPostsByTopic clusters posts into topics. Posts carrying a campaign id
// are grouped by that id; the rest are chained greedily in time order, a post
// joining the current topic when it is within TopicWindow of the previous post
// in that topic. Posts without a publication time are dropped.
func GroupPostsByTopic(posts []models.ScheduledPost, loc *time.Location) []models.TopicGroup {
	var inferred []models.ScheduledPost
	explicit := make(map[string][]models.ScheduledPost)

	for _, p := range posts {
		if !p.HasTime() {
			continue
		}
		if p.CampaignID != "" {
			explicit[p.CampaignID] = append(explicit[p.CampaignID], p)
			continue
		}
		inferred = append(inferred, p)
	}

	groups := groupByProximity(inferred, loc)
	for id, members := range explicit {
		sortPosts(members)
		g := newTopicGroup(members[0], loc, models.GroupingKey{Kind: models.GroupingExplicit, CampaignID: id})
		for _, p := range members[1:] {
			addToGroup(&g, p)
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].PostTime.Equal(groups[j].PostTime) {
			return groups[i].Key.CampaignID < groups[j].Key.CampaignID
		}
		return groups[i].PostTime.Before(groups[j].PostTime)
	})
	return groups
}

func groupByProximity(posts []models.ScheduledPost, loc *time.Location) []models.TopicGroup {
	sortPosts(posts)

	var groups []models.TopicGroup
	var last time.Time
	key := models.GroupingKey{Kind: models.GroupingInferred, Window: TopicWindow}

	for _, p := range posts {
		t := p.PublicationDateTime
		if len(groups) > 0 && t.Sub(last) <= TopicWindow {
			addToGroup(&groups[len(groups)-1], p)
		} else {
			groups = append(groups, newTopicGroup(p, loc, key))
		}
		last = t
	}
	return groups
}

func newTopicGroup(p models.ScheduledPost, loc *time.Location, key models.GroupingKey) models.TopicGroup {
	local := p.PublicationDateTime.In(loc)
	g := models.TopicGroup{
		Topic:     fmt.Sprintf("topic_%s_%s", FormatDate(local), clockTime(local)),
		PostTime:  p.PublicationDateTime,
		Platforms: []string{},
		Key:       key,
	}
	addToGroup(&g, p)
	return g
}

func addToGroup(g *models.TopicGroup, p models.ScheduledPost) {
	if p.ID != "" {
		g.PostIDs = append(g.PostIDs, p.ID)
	}
	for _, network := range p.Networks() {
		if containsString(g.Platforms, network) {
			continue
		}
		g.Platforms = append(g.Platforms, network)
		g.PostCount++
	}
}

// GroupByDay buckets posts by their local ISO date and groups each day.
func GroupByDay(posts []models.ScheduledPost, loc *time.Location) map[string][]models.TopicGroup {
	byDay := make(map[string][]models.ScheduledPost)
	for _, p := range posts {
		if !p.HasTime() {
			continue
		}
		day := FormatDate(p.PublicationDateTime.In(loc))
		byDay[day] = append(byDay[day], p)
	}

	out := make(map[string][]models.TopicGroup, len(byDay))
	for day, dayPosts := range byDay {
		out[day] = GroupPostsByTopic(dayPosts, loc)
	}
	return out
}

// sortPosts orders by time, then id, then network list, so equal posts
// without ids still land in the same order.
func sortPosts(posts []models.ScheduledPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublicationDateTime, posts[j].PublicationDateTime
		if !a.Equal(b) {
			return a.Before(b)
		}
		if posts[i].ID != posts[j].ID {
			return posts[i].ID < posts[j].ID
		}
		return networkKey(posts[i]) < networkKey(posts[j])
	})
}

func networkKey(p models.ScheduledPost) string {
	networks := p.Networks()
	sort.Strings(networks)
	return strings.Join(networks, ",")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
