package dmail

import "fmt"

// Reply templates, in the remote platform's DText markup.

func replyTitle(originalTitle string) string {
	return "Re: " + originalTitle
}

func invalidCommandBody(title string) string {
	return fmt.Sprintf(`h5. Unknown Command

[quote]
[b]Oops![/b] I didn't understand the command "%s".

To use me, send a dmail whose [b]subject[/b] is one of the commands I know. Right now I understand:

* [b]Replacement[/b] — request a new image for an existing post.

For detailed instructions, please check out the "HOW TO USE" section on my [b] "About Me":https://e6ai.net/users/42811 [/b] page.

If you continue to have issues, you can reach out to my [b]"owner here":https://e6ai.net/users/26091[/b].
[/quote]`, title)
}

const invalidReplacementBody = `h5. Invalid Replacement Request

[quote]
[b]Oops![/b] It looks like your replacement request wasn't formatted correctly.

To successfully request a replacement, please make sure the body of your message follows this exact format:

[quote]
Post: [i]REPLACE_WITH_E6AI_POST_LINK[/i]
New Image: [i]REPLACE_WITH_DIRECT_IMAGE_LINK[/i]
[/quote]

* The "Post" link [u]must[/u] be a valid link to a post on e6ai.net.
* The "New Image" link [u]must[/u] be a direct link to an image file.

For more detailed instructions and a helpful example, please check out the "HOW TO USE" section on my [b] "About Me":https://e6ai.net/users/42811 [/b] page.

If you continue to have issues, you can reach out to my [b]"owner here":https://e6ai.net/users/26091[/b].
[/quote]`

const (
	approvedTitle = "Replacement Request Approved"
	declinedTitle = "Replacement Request Declined"
)

func approvedBody(postID int64) string {
	return fmt.Sprintf("Your replacement request for post #%d has been approved and will be processed shortly.", postID)
}

func declinedBody(postID int64) string {
	return fmt.Sprintf("Your replacement request for post #%d has been declined.", postID)
}
