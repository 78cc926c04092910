package basketsync

import (
	"fmt"
	"net/http"
	"os/exec"
	"regexp"
	"testing"
	"time"
)

const firestoreEmulatorImage = "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators"

// startFirestoreEmulator returns the host:port of a fresh emulator. The
// container is removed when the test ends.
func startFirestoreEmulator(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("areabasket-test-firestore-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:8080",
		firestoreEmulatorImage,
		"gcloud", "emulators", "firestore", "start", "--host-port=0.0.0.0:8080",
	)
	if err != nil {
		t.Fatalf("start firestore emulator: %v\n%s", err, out)
	}
	t.Cleanup(func() { _, _ = dockerRun("rm", "-f", name) })

	port, err := dockerHostPort(name, "8080/tcp")
	if err != nil {
		t.Fatalf("firestore docker port: %v", err)
	}
	addr := "127.0.0.1:" + port

	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		res, err := http.Get("http://" + addr + "/")
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return addr
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("firestore emulator did not become ready")
	return ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
