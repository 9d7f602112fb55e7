package github

import (
	"encoding/json"
	"fmt"
)

type user struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

type repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Watchers    int      `json:"watchers_count"`
	OpenIssues  int      `json:"open_issues_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	HTMLURL     string   `json:"html_url"`
	Topics      []string `json:"topics"`
	Private     bool     `json:"private"`
	License     *struct {
		Name string `json:"name"`
	} `json:"license"`
}

type login struct {
	Login string `json:"login"`
}

type label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type issue struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	State     string  `json:"state"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	HTMLURL   string  `json:"html_url"`
	User      login   `json:"user"`
	Labels    []label `json:"labels"`
	Assignee  *login  `json:"assignee"`
	Assignees []login `json:"assignees"`
	Milestone *struct {
		Title string `json:"title"`
	} `json:"milestone"`
	Comments int `json:"comments"`
	// PullRequest is set when the issue is a pull request
	PullRequest json.RawMessage `json:"pull_request"`
}

func (i issue) isPullRequest() bool {
	return len(i.PullRequest) > 0 && string(i.PullRequest) != "null"
}

func (i issue) labelNames(withColor bool) []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		if withColor {
			names = append(names, fmt.Sprintf("%s (%s)", l.Name, l.Color))
		} else {
			names = append(names, l.Name)
		}
	}
	return names
}

type comment struct {
	User      login  `json:"user"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
