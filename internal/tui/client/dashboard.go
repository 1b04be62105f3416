package client

import (
	"sync"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func (c *APIClient) Dashboard() (models.Dashboard, error) {
	var d models.Dashboard
	body, err := c.get("/dashboard")
	if err != nil {
		return d, err
	}
	err = decode(body, &d)
	return d, err
}

// DashboardBundle is everything the dashboard page shows.
type DashboardBundle struct {
	Profile       models.User
	Dashboard     models.Dashboard
	Notifications []models.Notification
	Upcoming      []models.CalendarEvent

	// Partial failures of the parallel fetches; the page still renders.
	DashboardErr     error
	NotificationsErr error
	UpcomingErr      error
}

// LoadDashboard fetches the profile first; only when that succeeds are
// the dashboard, notifications and upcoming sessions fetched in parallel.
func (c *APIClient) LoadDashboard() (DashboardBundle, error) {
	var b DashboardBundle
	profile, err := c.Profile()
	if err != nil {
		return b, err
	}
	b.Profile = profile

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.Dashboard, b.DashboardErr = c.Dashboard()
	}()
	go func() {
		defer wg.Done()
		b.Notifications, b.NotificationsErr = c.Notifications(profile.ID)
	}()
	go func() {
		defer wg.Done()
		b.Upcoming, b.UpcomingErr = c.UpcomingEvents()
	}()
	wg.Wait()
	return b, nil
}

// GroupBundle is the group detail page's parallel fetch.
type GroupBundle struct {
	Group   models.Group
	Members []models.Member
}

func (c *APIClient) LoadGroup(groupID int64) (GroupBundle, error) {
	var (
		b          GroupBundle
		groupErr   error
		membersErr error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.Group, groupErr = c.Group(groupID)
	}()
	go func() {
		defer wg.Done()
		b.Members, membersErr = c.Members(groupID)
	}()
	wg.Wait()
	if groupErr != nil {
		return b, groupErr
	}
	return b, membersErr
}

// ManageBundle is the management page's parallel fetch. A failing request
// list is tolerated as empty.
type ManageBundle struct {
	Group    models.Group
	Members  []models.Member
	Requests []models.JoinRequest
}

func (c *APIClient) LoadManagement(groupID int64) (ManageBundle, error) {
	var (
		b        ManageBundle
		groupErr error
		memErr   error
		wg       sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.Group, groupErr = c.Group(groupID)
	}()
	go func() {
		defer wg.Done()
		b.Members, memErr = c.Members(groupID)
	}()
	go func() {
		defer wg.Done()
		reqs, err := c.JoinRequests(groupID)
		if err != nil {
			reqs = nil
		}
		b.Requests = reqs
	}()
	wg.Wait()
	if groupErr != nil {
		return b, groupErr
	}
	return b, memErr
}
