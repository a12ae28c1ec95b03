package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// GitHubClient wraps the GitHub API client with automatic rate-limit
// handling. Setting GITHUB_TOKEN raises the request quota.
type GitHubClient struct {
	*github.Client
}

// NewGitHubClient creates a rate-limited, optionally authenticated client.
func NewGitHubClient() (*GitHubClient, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return &GitHubClient{Client: client}, nil
}

// RepoDoc is one markdown file fetched from a repository.
type RepoDoc struct {
	Path    string // path relative to the fetch root
	Content string
	URL     string // raw content URL
}

// RepoFetcher lists and downloads markdown documentation from one GitHub
// repository subtree.
type RepoFetcher struct {
	client   *GitHubClient
	owner    string
	repo     string
	basePath string
}

// NewRepoFetcher targets owner/repo under basePath ("" for the repo root).
func NewRepoFetcher(client *GitHubClient, owner, repo, basePath string) *RepoFetcher {
	return &RepoFetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListDocs recursively lists all markdown files under the base path.
func (f *RepoFetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *RepoFetcher) listRecursive(ctx context.Context, fullPath, relPath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemRel := path.Join(relPath, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				docs = append(docs, itemRel)
			}
		case "dir":
			sub, err := f.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRel)
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
		}
	}

	return docs, nil
}

// FetchDoc downloads one markdown file.
func (f *RepoFetcher) FetchDoc(ctx context.Context, relPath string) (*RepoDoc, error) {
	fullPath := path.Join(f.basePath, relPath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fullPath, err)
	}

	return &RepoDoc{
		Path:    relPath,
		Content: string(content),
		URL: fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/%s",
			f.owner, f.repo, fullPath),
	}, nil
}
