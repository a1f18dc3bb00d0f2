//go:build ignore
// +build ignore

// Package main provides a manual concurrency stress test for the issue endpoint.
//
// Usage:
//
//	go run ./scripts/concurrency_test.go <book_id> <user1_id> [user2_id ...]
//
// Or use the convenience environment variables:
//
//	BOOK_ID=<uuid>  USER_IDS=<uuid1>,<uuid2>,...  go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires N goroutines (one per user) all attempting to issue the same book simultaneously.
//  2. Prints how many got a transaction vs. an "unavailable" rejection.
//  3. With a book holding K available copies and N > K users, exactly K requests
//     must succeed; any other outcome means the availability counter raced.
//
// Prerequisites:
//   - Server must be running with LIBRARY_DATABASE_URL set.
//   - The book and all users must exist; users issue to themselves.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type issueResult struct {
	UserID     string
	StatusCode int
	Message    string
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	bookID := os.Getenv("BOOK_ID")
	userIDsEnv := os.Getenv("USER_IDS")

	var userIDs []string
	if userIDsEnv != "" {
		userIDs = strings.Split(userIDsEnv, ",")
	}

	args := os.Args[1:]
	if len(args) >= 1 {
		bookID = args[0]
	}
	if len(args) >= 2 {
		userIDs = args[1:]
	}

	if bookID == "" {
		log.Fatal("Usage: BOOK_ID=<uuid> USER_IDS=<u1,u2,...> go run ./scripts/concurrency_test.go\n" +
			"  or: go run ./scripts/concurrency_test.go <book_id> <user1_id> [user2_id ...]")
	}
	if len(userIDs) == 0 {
		log.Fatal("At least one user ID must be provided via USER_IDS env or positional args")
	}

	fmt.Printf("=== Issue Concurrency Test ===\n")
	fmt.Printf("Server : %s\n", serverAddr)
	fmt.Printf("Book   : %s\n", bookID)
	fmt.Printf("Users  : %d\n\n", len(userIDs))

	results := make([]issueResult, len(userIDs))
	var wg sync.WaitGroup

	// Fire all goroutines simultaneously using a barrier.
	start := make(chan struct{})

	for i, uid := range userIDs {
		wg.Add(1)
		go func(idx int, userID string) {
			defer wg.Done()
			<-start
			results[idx] = attemptIssue(serverAddr, bookID, strings.TrimSpace(userID))
		}(i, uid)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)

	wg.Wait()
	fmt.Println("All requests completed.")
	fmt.Println()

	var issued, unavailable, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] user=%-38s err=%v\n", r.UserID, r.Err)
		case r.StatusCode == http.StatusCreated:
			issued++
			fmt.Printf("  [ISSU] user=%-38s status=%d\n", r.UserID, r.StatusCode)
		case r.StatusCode == http.StatusConflict:
			unavailable++
			fmt.Printf("  [FULL] user=%-38s status=%d %s\n", r.UserID, r.StatusCode, r.Message)
		default:
			failures++
			fmt.Printf("  [FAIL] user=%-38s status=%d unexpected response\n", r.UserID, r.StatusCode)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Issued      : %d\n", issued)
	fmt.Printf("Unavailable : %d\n", unavailable)
	fmt.Printf("Failures    : %d\n", failures)
	fmt.Printf("Total       : %d\n\n", len(userIDs))

	fmt.Println("--- Invariant Check ---")
	fmt.Println("The conditional decrement (available_copies > 0) inside the store")
	fmt.Println("transaction allows at most available_copies requests to succeed.")
	fmt.Printf("Issued: %d — if this equals the book's available copies before the run, the system is correct.\n", issued)

	if failures > 0 {
		fmt.Printf("\n[WARNING] %d request(s) failed — check server logs for details.\n", failures)
		os.Exit(1)
	}
}

// attemptIssue sends POST /issue for the given user (issuing to themselves) and
// records the response status and message.
func attemptIssue(serverAddr, bookID, userID string) issueResult {
	url := fmt.Sprintf("%s/issue", serverAddr)
	body := fmt.Sprintf(`{"book_id":%q}`, bookID)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return issueResult{UserID: userID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return issueResult{UserID: userID, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return issueResult{UserID: userID, StatusCode: resp.StatusCode, Err: fmt.Errorf("bad JSON: %s", raw)}
	}

	msg, _ := parsed["message"].(string)
	if msg == "" {
		msg, _ = parsed["error"].(string)
	}
	return issueResult{
		UserID:     userID,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
