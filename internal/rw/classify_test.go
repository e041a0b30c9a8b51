package rw

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  EventKind
	}{
		{"nothing set", Flags{}, KindUnknown},
		{"file created", Flags{FileCreated: true}, KindFileCreated},
		{"file removed", Flags{FileRemoved: true}, KindFileRemoved},
		{"file renamed", Flags{FileRenamed: true}, KindFileRenamed},
		{"file changed", Flags{FileChanged: true}, KindFileChanged},
		{"dir created", Flags{DirCreated: true}, KindDirCreated},
		{"dir removed", Flags{DirRemoved: true}, KindDirRemoved},
		{"dir renamed", Flags{DirRenamed: true}, KindDirRenamed},
		{"dir changed", Flags{DirChanged: true}, KindDirChanged},

		// Later checks override earlier ones.
		{"created then changed", Flags{FileCreated: true, FileChanged: true}, KindFileChanged},
		{"created then removed", Flags{FileCreated: true, FileRemoved: true}, KindFileRemoved},
		{"removed and renamed", Flags{FileRemoved: true, FileRenamed: true}, KindFileRenamed},
		{"file and dir flags", Flags{FileChanged: true, DirCreated: true}, KindDirCreated},
		{"everything", Flags{
			FileCreated: true, FileRemoved: true, FileRenamed: true, FileChanged: true,
			DirCreated: true, DirRemoved: true, DirRenamed: true, DirChanged: true,
		}, KindDirChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.flags); got != tt.want {
				t.Errorf("Classify(%+v) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestFlags_Any(t *testing.T) {
	if (Flags{}).Any() {
		t.Error("empty Flags.Any() = true")
	}
	if !(Flags{DirRenamed: true}).Any() {
		t.Error("Flags{DirRenamed}.Any() = false")
	}
}
