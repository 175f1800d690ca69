package transcode

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildEncodeArgsFile(t *testing.T) {
	args := buildEncodeArgs(EncodeConfig{
		Input:   "/media/movie.mkv",
		Output:  "/tmp/out.mp4",
		Bitrate: "4000k",
	})

	want := "-y -nostdin -i /media/movie.mkv -preset ultrafast -f mp4 " +
		"-frag_duration 3000 -b:v 4000k -loglevel error /tmp/out.mp4"
	if got := strings.Join(args, " "); got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestBuildEncodeArgsPipe(t *testing.T) {
	args := buildEncodeArgs(EncodeConfig{
		Input:  "/media/movie.mkv",
		Output: "-",
	})

	want := "-y -nostdin -i /media/movie.mkv -preset ultrafast -f mp4 " +
		"-frag_duration 3000 -b:v 6000k -loglevel error -vcodec h264 -acodec aac -"
	if got := strings.Join(args, " "); got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestNewFileJobCreatesAndCleansOutput(t *testing.T) {
	job, err := NewFileJob(context.Background(), EncodeConfig{Input: "in.mkv"})
	if err != nil {
		t.Fatalf("NewFileJob: %v", err)
	}
	defer job.Cleanup()

	path := job.OutputPath()
	if path == "" {
		t.Fatal("OutputPath is empty")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file not created: %v", err)
	}
	if job.ID() == "" {
		t.Fatal("ID is empty")
	}

	job.Cleanup()
	job.Cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("output file still present after Cleanup: %v", err)
	}
}

func TestWaitReadyUnblocksWhenFileGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	job := &Job{
		outPath:      path,
		readyBytes:   16,
		pollInterval: time.Millisecond,
		done:         make(chan struct{}),
	}

	go func() {
		for i := 0; i < 4; i++ {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return
			}
			f.Write(bytes.Repeat([]byte{0}, 8))
			f.Close()
			time.Sleep(2 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := job.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() < 16 {
		t.Fatalf("WaitReady returned at %d bytes, want >= 16", fi.Size())
	}
}

func TestWaitReadyCleanExitMeansReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, []byte("tiny"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	job := &Job{
		outPath:      path,
		readyBytes:   1 << 20,
		pollInterval: time.Millisecond,
		done:         make(chan struct{}),
	}
	close(job.done)

	if err := job.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady after clean exit: %v", err)
	}
}

func TestWaitReadyEncoderFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	job := &Job{
		outPath:      path,
		readyBytes:   1 << 20,
		pollInterval: time.Millisecond,
		done:         make(chan struct{}),
	}
	job.err = io.ErrUnexpectedEOF
	job.stderrBuf.WriteString("No such file or directory\n")
	close(job.done)

	err := job.WaitReady(context.Background())
	if err == nil {
		t.Fatal("WaitReady returned nil after encoder failure")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("error missing stderr detail: %v", err)
	}
}

func TestWaitReadyContextCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	job := &Job{
		outPath:      path,
		readyBytes:   1 << 20,
		pollInterval: time.Hour,
		done:         make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.WaitReady(ctx); err != context.Canceled {
		t.Fatalf("WaitReady = %v, want context.Canceled", err)
	}
}

func TestWaitReadyPipeJobImmediate(t *testing.T) {
	job := &Job{pipe: true, done: make(chan struct{})}
	if err := job.WaitReady(context.Background()); err != nil {
		t.Fatalf("WaitReady for pipe job: %v", err)
	}
}

func buildVideoFixture(t *testing.T, ffmpegPath, dir string) string {
	t.Helper()

	outPath := filepath.Join(dir, "fixture.mkv")
	out, err := exec.Command(ffmpegPath,
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=320x240:d=1",
		"-f", "lavfi",
		"-i", "anullsrc=r=48000:cl=stereo",
		"-shortest", "-c:v", "libx264", "-c:a", "aac",
		outPath,
	).CombinedOutput()
	if err != nil {
		t.Skipf("ffmpeg fixture generation failed: %v\n%s", err, string(out))
	}
	return outPath
}

func TestFileJobEncodesFixture(t *testing.T) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg binary not available")
	}

	dir := t.TempDir()
	input := buildVideoFixture(t, ffmpegPath, dir)

	job, err := NewFileJob(context.Background(), EncodeConfig{
		FFmpegPath: ffmpegPath,
		Input:      input,
		ReadyBytes: 1,
	})
	if err != nil {
		t.Fatalf("NewFileJob: %v", err)
	}
	defer job.Cleanup()
	job.pollInterval = 10 * time.Millisecond

	if err := job.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := job.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}

	fi, err := os.Stat(job.OutputPath())
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatal("output file is empty after WaitReady")
	}

	job.Stop()
	job.Wait()
	if !job.IsDone() {
		t.Fatal("IsDone = false after Wait")
	}
	job.Cleanup()
	if _, err := os.Stat(job.OutputPath()); !os.IsNotExist(err) {
		t.Fatalf("output file still present after Cleanup: %v", err)
	}
}

func TestPipeJobStreamsOutput(t *testing.T) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg binary not available")
	}

	dir := t.TempDir()
	input := buildVideoFixture(t, ffmpegPath, dir)

	job := NewPipeJob(context.Background(), EncodeConfig{
		FFmpegPath: ffmpegPath,
		Input:      input,
	})
	if err := job.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		job.Stop()
		job.Wait()
	}()

	out := job.Output()
	if out == nil {
		t.Fatal("Output is nil after Start")
	}
	defer out.Close()

	head := make([]byte, 1024)
	n, err := io.ReadAtLeast(out, head, 12)
	if err != nil {
		t.Fatalf("read encoder output: %v", err)
	}
	if !bytes.Contains(head[:n], []byte("ftyp")) {
		t.Fatalf("encoder output does not look like mp4: %q", head[:16])
	}
}
