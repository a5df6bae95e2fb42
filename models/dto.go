package models

import "time"

// UserDTO is the public shape of a user. Password hashes never leave the server.
type UserDTO struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Role     *string `json:"role"`
}

// PollDTO is a poll with its creator
type PollDTO struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageName   *string   `json:"imageName"`
	EventDate   time.Time `json:"eventDate"`
	User        *UserDTO  `json:"user"`
}

// PollWithVotesDTO is a poll with its creator and every vote cast on it
type PollWithVotesDTO struct {
	PollDTO
	Votes []VoteDTO `json:"votes"`
}

// VoteDTO is a vote with its voter
type VoteDTO struct {
	PollID  uint      `json:"pollId"`
	Status  bool      `json:"status"`
	Created time.Time `json:"created"`
	User    *UserDTO  `json:"user"`
}

// TokenDTO is returned by a successful login
type TokenDTO struct {
	Token string `json:"token"`
}

func NewUserDTO(u *User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{ID: u.ID, Username: u.Username}
	if u.Role != "" {
		role := u.Role
		dto.Role = &role
	}
	return dto
}

func NewUserDTOs(users []User) []UserDTO {
	result := make([]UserDTO, len(users))
	for i := range users {
		result[i] = *NewUserDTO(&users[i])
	}
	return result
}

func NewPollDTO(p *Poll) PollDTO {
	return PollDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageName:   p.ImageName,
		EventDate:   p.EventDate,
		User:        NewUserDTO(p.User),
	}
}

func NewPollDTOs(polls []Poll) []PollDTO {
	result := make([]PollDTO, len(polls))
	for i := range polls {
		result[i] = NewPollDTO(&polls[i])
	}
	return result
}

// NewPollWithVotesDTO maps a poll loaded with its votes. Votes that were not
// loaded map to an empty list, never null.
func NewPollWithVotesDTO(p *Poll) PollWithVotesDTO {
	return PollWithVotesDTO{
		PollDTO: NewPollDTO(p),
		Votes:   NewVoteDTOs(p.Votes),
	}
}

func NewVoteDTO(v *Vote) VoteDTO {
	return VoteDTO{
		PollID:  v.PollID,
		Status:  v.Status,
		Created: v.Created,
		User:    NewUserDTO(v.User),
	}
}

func NewVoteDTOs(votes []Vote) []VoteDTO {
	result := make([]VoteDTO, len(votes))
	for i := range votes {
		result[i] = NewVoteDTO(&votes[i])
	}
	return result
}
