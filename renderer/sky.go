package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// skyVertSrc strips the view translation so the sky stays at infinity and
// uses the xyww trick to put every fragment on the far plane.
const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

layout(std140) uniform Camera {
    mat4 view;
    mat4 projection;
    vec4 cameraPosition;
};

uniform float uFlipY;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = projection * mat4(mat3(view)) * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
    gl_Position.y *= uFlipY;
}
`

const skyFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform samplerCube radianceMap;

void main() {
    outColor = vec4(textureLod(radianceMap, normalize(fragDir), 0.0).rgb, 1.0);
}
`

func skyVertex(v core.Vertex, cam *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
	rot := cam.View.Mat3().Mat4()
	pos := cam.Projection.Mul4(rot).Mul4x1(v.Position.Vec4(1))
	pos[2] = pos[3]
	return pos, v.Position
}

func skyFragment(in *gpu.FragmentInput) mgl32.Vec4 {
	if len(in.Textures) == 0 {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	cube, ok := in.Textures[0].(gpu.SamplerCube)
	if !ok {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	c := cube.SampleCube(in.Varying.Normalize(), 0)
	c[3] = 1
	return c
}

func skyProgramSource() gpu.ProgramSource {
	return gpu.ProgramSource{
		Name:         "sky",
		VertexGLSL:   skyVertSrc,
		FragmentGLSL: skyFragSrc,
		Samplers:     []string{"radianceMap"},
		Origin:       gpu.OriginTopLeft,
		Vertex:       skyVertex,
		Fragment:     skyFragment,
	}
}
