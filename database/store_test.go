package database_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/testutil"
)

func TestFindUserByCredentials(t *testing.T) {
	testutil.SetupTestDB(t)
	created := testutil.CreateTestUser(t, "Alice", "wonderland", "")

	tests := []struct {
		name     string
		username string
		password string
		found    bool
	}{
		{"exact match", "Alice", "wonderland", true},
		{"username ignores case", "aLICE", "wonderland", true},
		{"password is case sensitive", "Alice", "Wonderland", false},
		{"unknown user", "bob", "wonderland", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := database.FindUserByCredentials(tt.username, tt.password)
			if tt.found {
				if err != nil {
					t.Fatalf("Expected user, got error: %v", err)
				}
				if user.ID != created.ID {
					t.Errorf("Expected user %d, got %d", created.ID, user.ID)
				}
				return
			}
			if !database.IsNotFound(err) {
				t.Errorf("Expected not found, got %v", err)
			}
		})
	}
}

func TestPasswordIsHashed(t *testing.T) {
	testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, "alice", "wonderland", "")

	if user.PasswordHash == "wonderland" || user.PasswordHash == "" {
		t.Errorf("Expected a bcrypt hash, got %q", user.PasswordHash)
	}
}

func TestUsernameExists(t *testing.T) {
	testutil.SetupTestDB(t)
	testutil.CreateTestUser(t, "Alice", "pw", "")

	for _, name := range []string{"Alice", "alice", "ALICE"} {
		exists, err := database.UsernameExists(name)
		if err != nil {
			t.Fatalf("UsernameExists(%q) failed: %v", name, err)
		}
		if !exists {
			t.Errorf("Expected %q to exist", name)
		}
	}

	exists, err := database.UsernameExists("bob")
	if err != nil {
		t.Fatalf("UsernameExists failed: %v", err)
	}
	if exists {
		t.Error("Expected bob not to exist")
	}
}

func TestUsernameUniqueIgnoringCase(t *testing.T) {
	testutil.SetupTestDB(t)
	testutil.CreateTestUser(t, "Alice", "pw", "")

	if _, err := database.CreateUser("ALICE", "other", ""); err == nil {
		t.Error("Expected the unique index to reject a case variant")
	}
}

func TestGetPollsLoading(t *testing.T) {
	testutil.SetupTestDB(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	voter := testutil.CreateTestUser(t, "voter", "voter", "")
	first := testutil.CreateTestPoll(t, admin.ID, "First")
	testutil.CreateTestPoll(t, admin.ID, "Second")
	testutil.CreateTestVote(t, first.ID, voter.ID, true)

	polls, err := database.GetPolls(false)
	if err != nil {
		t.Fatalf("GetPolls failed: %v", err)
	}
	if len(polls) != 2 {
		t.Fatalf("Expected 2 polls, got %d", len(polls))
	}
	if polls[0].Name != "First" || polls[1].Name != "Second" {
		t.Errorf("Expected polls ordered by id, got %s, %s", polls[0].Name, polls[1].Name)
	}
	if polls[0].User == nil || polls[0].User.Username != "admin" {
		t.Error("Expected creator to be loaded")
	}
	if polls[0].Votes != nil {
		t.Error("Expected votes not to be loaded")
	}

	polls, err = database.GetPolls(true)
	if err != nil {
		t.Fatalf("GetPolls failed: %v", err)
	}
	if len(polls[0].Votes) != 1 {
		t.Fatalf("Expected 1 vote, got %d", len(polls[0].Votes))
	}
	if polls[0].Votes[0].User == nil || polls[0].Votes[0].User.Username != "voter" {
		t.Error("Expected voter to be loaded")
	}
	if len(polls[1].Votes) != 0 {
		t.Errorf("Expected no votes on second poll, got %d", len(polls[1].Votes))
	}
}

func TestFindPollNotFound(t *testing.T) {
	testutil.SetupTestDB(t)

	_, err := database.FindPoll(42, true)
	if !database.IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestUpsertVoteKeepsCreated(t *testing.T) {
	testutil.SetupTestDB(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	voter := testutil.CreateTestUser(t, "voter", "voter", "")
	poll := testutil.CreateTestPoll(t, admin.ID, "Launch")

	firstAt := time.Now().Add(-time.Hour)
	first, err := database.UpsertVote(poll.ID, voter.ID, true, firstAt)
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if !first.Status {
		t.Error("Expected status true after first vote")
	}
	if first.User == nil || first.User.ID != voter.ID {
		t.Error("Expected voter to be loaded")
	}

	second, err := database.UpsertVote(poll.ID, voter.ID, false, time.Now())
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	if second.Status {
		t.Error("Expected status false after second vote")
	}
	if !second.Created.Equal(first.Created) {
		t.Errorf("Expected created %v to be kept, got %v", first.Created, second.Created)
	}

	var count int64
	database.DB.Model(&models.Vote{}).Where("poll_id = ?", poll.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly one vote row, got %d", count)
	}
}

func TestUpsertVoteConcurrentFirstVotes(t *testing.T) {
	testutil.SetupTestDB(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	voter := testutil.CreateTestUser(t, "voter", "voter", "")
	poll := testutil.CreateTestPoll(t, admin.ID, "Race")

	const writers = 12
	base := time.Now().Truncate(time.Second)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = database.UpsertVote(poll.ID, voter.ID, i%2 == 0, base.Add(time.Duration(i)*time.Minute))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Writer %d failed: %v", i, err)
		}
	}

	var votes []models.Vote
	if err := database.DB.Where("poll_id = ?", poll.ID).Find(&votes).Error; err != nil {
		t.Fatalf("Failed to list votes: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("Expected exactly one vote, got %d", len(votes))
	}

	// created comes from whichever write inserted the row
	created := votes[0].Created
	if created.Before(base) || created.After(base.Add(writers*time.Minute)) {
		t.Errorf("Expected created within the writers' timestamps, got %v", created)
	}
}

func TestUpsertVoteUnknownPoll(t *testing.T) {
	testutil.SetupTestDB(t)
	voter := testutil.CreateTestUser(t, "voter", "voter", "")

	if _, err := database.UpsertVote(999, voter.ID, true, time.Now()); err == nil {
		t.Error("Expected foreign key violation for a missing poll")
	}
}

func TestDeletePollCascadesVotes(t *testing.T) {
	testutil.SetupTestDB(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	voter := testutil.CreateTestUser(t, "voter", "voter", "")
	poll := testutil.CreateTestPoll(t, admin.ID, "Launch")
	testutil.CreateTestVote(t, poll.ID, voter.ID, true)
	testutil.CreateTestVote(t, poll.ID, admin.ID, false)

	if err := database.DB.Delete(&models.Poll{}, poll.ID).Error; err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var count int64
	database.DB.Model(&models.Vote{}).Where("poll_id = ?", poll.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected votes to cascade, %d left", count)
	}
}

func TestDeleteVote(t *testing.T) {
	testutil.SetupTestDB(t)
	admin := testutil.CreateTestUser(t, "admin", "admin", models.RoleAdmin)
	poll := testutil.CreateTestPoll(t, admin.ID, "Launch")
	testutil.CreateTestVote(t, poll.ID, admin.ID, true)

	if err := database.DeleteVote(poll.ID, admin.ID); err != nil {
		t.Fatalf("DeleteVote failed: %v", err)
	}
	if err := database.DeleteVote(poll.ID, admin.ID); !database.IsNotFound(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestSeedDemoData(t *testing.T) {
	testutil.SetupTestDB(t)

	if err := database.SeedDemoData(); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	// Second run is a no-op
	if err := database.SeedDemoData(); err != nil {
		t.Fatalf("Second SeedDemoData failed: %v", err)
	}

	admin, err := database.FindUserByCredentials("admin", "admin")
	if err != nil {
		t.Fatalf("Expected seeded admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Error("Expected seeded admin to carry the admin role")
	}

	polls, err := database.GetPolls(true)
	if err != nil {
		t.Fatalf("GetPolls failed: %v", err)
	}
	if len(polls) != 1 || len(polls[0].Votes) != 1 {
		t.Errorf("Expected one seeded poll with one vote, got %+v", polls)
	}
}
