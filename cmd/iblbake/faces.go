package main

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"ibl-engine/gpu"
	"ibl-engine/ibl"
	"ibl-engine/scene"
)

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%+.2f, %+.2f, %+.2f)", v[0], v[1], v[2])
}

// ListFaces prints the capture orientation and view basis of every face.
func ListFaces(ctx *cli.Context) error {
	setupLogging(ctx)

	rig := scene.NewCameraRig(90, 1, 0.1, 10)
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Face", "Name", "Pitch", "Yaw", "Forward", "Up"})
	for face, o := range ibl.FaceOrientations {
		o.Apply(rig)
		table.Append([]string{
			fmt.Sprintf("%d", face),
			ibl.FaceNames[face],
			fmt.Sprintf("%.0f", o.Pitch),
			fmt.Sprintf("%.0f", o.Yaw),
			formatVec(rig.GetForward()),
			formatVec(rig.GetUp()),
		})
	}

	table.Render()
	logger.Noticef("cube face orientations\n%s", buf.String())
	return nil
}

// ListBackends prints the registered rendering backends.
func ListBackends(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Backend"})
	for _, name := range gpu.Backends() {
		table.Append([]string{name})
	}

	table.Render()
	logger.Noticef("available backends\n%s", buf.String())
	return nil
}
