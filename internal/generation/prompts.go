package generation

import (
	"fmt"
	"strings"
)

const prototypeInstructions = `Instructions:
1. Use ONLY Tailwind CSS for all styling. Do not include any <style> tags, custom CSS classes, or inline style attributes.
2. The output should be only the HTML code for the body content. Do not include <html>, <head>, or <body> tags.
3. Create a visually appealing, clean, and modern layout. %s
4. Ensure the UI is responsive and well-structured.
5. Pay attention to spacing, typography, and component hierarchy.
6. Use SVG icons from a library like Heroicons (inline SVG) for any icons if needed.`

const storiesInstructions = `For each epic, define the necessary Jira-style user stories that fall under it.
For each user story, provide a title, the story itself (in the 'As a..., I want..., so that...' format), detailed acceptance criteria, and at least one BDD scenario (Given-When-Then).`

func prototypePrompt(requirements string, hasImage bool) string {
	var b strings.Builder
	b.WriteString("You are a world-class senior frontend engineer and UI/UX designer.\n")
	if strings.TrimSpace(requirements) == "" && hasImage {
		b.WriteString("Based on the provided wireframe image, generate a complete, single HTML structure that represents a modern, high-fidelity UI wireframe.\n\n")
		fmt.Fprintf(&b, prototypeInstructions, "Fill in placeholder content where necessary (e.g., names, descriptions, numbers).")
		b.WriteString("\n7. The provided image is a wireframe. Your task is to turn it into a high-fidelity implementation.\n")
		return b.String()
	}
	withImage := ""
	if hasImage {
		withImage = " and the provided wireframe image"
	}
	fmt.Fprintf(&b, "Based on the following user requirements%s, generate a complete, single HTML structure that represents a modern UI wireframe.\n\n", withImage)
	fmt.Fprintf(&b, prototypeInstructions, "Use placeholder content where necessary.")
	if hasImage {
		b.WriteString("\n7. The provided image is a wireframe or inspiration. Your generated UI should be a high-fidelity implementation based on its layout and components.")
	}
	fmt.Fprintf(&b, "\n\nUser Requirements:\n%q\n", requirements)
	return b.String()
}

func storiesPrompt(requirements string, hasImage bool) string {
	var b strings.Builder
	b.WriteString("You are an expert Agile Product Owner.\n")
	if strings.TrimSpace(requirements) == "" && hasImage {
		b.WriteString("Analyze the provided wireframe image and break it down into a list of high-level features or epics required to build the interface shown.\n")
		b.WriteString(storiesInstructions)
		b.WriteString("\n")
		return b.String()
	}
	withImage := ""
	if hasImage {
		withImage = " and the provided wireframe image"
	}
	fmt.Fprintf(&b, "Analyze the following user requirements%s and break them down into a list of high-level features or epics.\n", withImage)
	b.WriteString(storiesInstructions)
	fmt.Fprintf(&b, "\n\nUser Requirements:\n%q\n", requirements)
	return b.String()
}

func refinePrompt(currentMarkup, instruction string) string {
	var b strings.Builder
	b.WriteString(`You are a world-class senior frontend engineer specializing in Tailwind CSS.
You will be given an existing block of HTML code that uses Tailwind CSS and a user's instruction for how to modify it.
Your task is to apply the user's requested changes and return the **complete, new HTML code for the body content**.

Instructions:
1. Analyze the provided HTML and the user's instruction carefully.
2. Modify the HTML to implement the change. This might involve adding, removing, or altering elements and classes.
3. Ensure the output is ONLY the modified HTML code for the body content. Do not include ` + "```html" + `, <html>, <head>, <body> tags, or any explanations.
4. Maintain the use of ONLY Tailwind CSS for styling.

**Existing HTML Code:**
`)
	b.WriteString("```html\n")
	b.WriteString(currentMarkup)
	b.WriteString("\n```\n\n**User's Instruction:**\n")
	fmt.Fprintf(&b, "%q\n", instruction)
	return b.String()
}

func variantPrompt(requirements, previousMarkup string, hasImage bool) string {
	var b strings.Builder
	b.WriteString(`You are a world-class senior frontend engineer and UI/UX designer.
A UI has already been generated for the user's requirements. Your task is to create a **new and distinctly different UI variant**.
Analyze the requirements and the previous UI, then generate a fresh alternative. Think about different layouts, color schemes, or component styles.

Instructions:
1. Use ONLY Tailwind CSS for all styling.
2. The output should be only the HTML code for the body content. Do not include <html>, <head>, or <body> tags.
3. Create a visually appealing, clean, and modern layout that is a clear alternative to the previous version.
4. Ensure the UI is responsive and well-structured.

**User Requirements:**
`)
	fmt.Fprintf(&b, "%q\n\n", requirements)
	if hasImage {
		b.WriteString("**Reference Image:**\n[Image was provided]\n\n")
	}
	b.WriteString("**Previous UI Version (to avoid duplicating):**\n```html\n")
	b.WriteString(previousMarkup)
	b.WriteString("\n```\n")
	return b.String()
}
